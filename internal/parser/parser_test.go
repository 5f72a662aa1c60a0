package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mnr-tools/policy-crawler/internal/model"
)

const flatTableListing = `
<html><body>
<table class="table">
  <tr><th>索引</th><th>标题</th><th>发文字号</th><th>生成日期</th></tr>
  <tr>
    <td>000123</td>
    <td>标题</td>
    <td><a href="/gk/202305/t20230501_1001.html">关于加强矿产资源规划管理的通知</a></td>
    <td>发文字号</td>
    <td>自然资发〔2023〕12号</td>
    <td>生成日期</td>
    <td>2023年05月01日</td>
  </tr>
  <tr>
    <td>000124</td>
    <td>标题</td>
    <td><a href="https://gi.mnr.gov.cn/202306/t20230601_1002.html">关于开展耕地保护专项督察的函</a></td>
    <td>发文字号</td>
    <td>自然资函〔2023〕45号</td>
    <td>发布日期</td>
    <td>2023-06-01</td>
  </tr>
  <tr>
    <td>索引</td>
    <td>标题</td>
    <td>发文字号</td>
    <td>生成日期</td>
  </tr>
</table>
</body></html>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func giSource() model.DataSource {
	return model.DataSource{
		Name:    "政府信息公开平台",
		BaseURL: "https://gi.mnr.gov.cn",
		Enabled: true,
	}
}

func fSource() model.DataSource {
	return model.DataSource{
		Name:    "政策法规库",
		BaseURL: "https://f.mnr.gov.cn",
		Level:   "部门规章",
		Enabled: true,
	}
}

func TestFlatTable_Parse(t *testing.T) {
	t.Parallel()
	p := NewFlatTable(giSource(), nil)
	policies := p.Parse(mustDoc(t, flatTableListing), "土地管理")

	require.Len(t, policies, 2)

	first := policies[0]
	require.Equal(t, "关于加强矿产资源规划管理的通知", first.Title)
	require.Equal(t, "https://gi.mnr.gov.cn/gk/202305/t20230501_1001.html", first.SourceURL)
	require.Equal(t, "自然资发〔2023〕12号", first.DocNumber)
	require.Equal(t, "2023-05-01", first.PubDate)
	require.Equal(t, "土地管理", first.Category)
	require.Equal(t, DefaultLevel, first.Level)
	require.NotEmpty(t, first.CrawlTime)

	second := policies[1]
	require.Equal(t, "关于开展耕地保护专项督察的函", second.Title)
	require.Equal(t, "https://gi.mnr.gov.cn/202306/t20230601_1002.html", second.SourceURL)
	require.Equal(t, "2023-06-01", second.PubDate)
}

func TestFlatTable_Parse_NoListingTable(t *testing.T) {
	t.Parallel()
	p := NewFlatTable(giSource(), nil)
	policies := p.Parse(mustDoc(t, "<html><body><p>无数据</p></body></html>"), "")
	require.Empty(t, policies)
}

const recordTableListing = `
<html><body>
<table>
  <tr><td>标  题</td><td><a href="/fgk/zcfg/2023/t1101.html">矿业权出让交易规则</a></td></tr>
  <tr><td>发文字号</td><td>自然资规〔2023〕5号</td></tr>
  <tr><td>成文时间</td><td>2023.11.01</td></tr>
  <tr><td>效力级别</td><td>部门规范性文件</td></tr>
</table>
<table>
  <tr><td>名称</td><td><a href="/fgk/zcfg/2022/t0715.html">土地征收成片开发标准</a></td></tr>
  <tr><td>文号</td><td>自然资发〔2022〕100号</td></tr>
  <tr><td>发布日期</td><td>2022/07/15</td></tr>
</table>
<table>
  <tr><td>导航</td><td>首页</td></tr>
  <tr><td>链接</td><td>历史版本</td></tr>
</table>
</body></html>`

func TestRecordTable_Parse(t *testing.T) {
	t.Parallel()
	p := NewRecordTable(fSource(), nil)
	policies := p.Parse(mustDoc(t, recordTableListing), "政策法规")

	require.Len(t, policies, 2)

	first := policies[0]
	require.Equal(t, "矿业权出让交易规则", first.Title)
	require.Equal(t, "https://f.mnr.gov.cn/fgk/zcfg/2023/t1101.html", first.SourceURL)
	require.Equal(t, "自然资规〔2023〕5号", first.DocNumber)
	require.Equal(t, "2023-11-01", first.PubDate)
	require.Equal(t, "部门规范性文件", first.Validity)
	require.Equal(t, "部门规章", first.Level)

	second := policies[1]
	require.Equal(t, "土地征收成片开发标准", second.Title)
	require.Equal(t, "自然资发〔2022〕100号", second.DocNumber)
	require.Equal(t, "2022-07-15", second.PubDate)
}

func TestRecordTable_Parse_RejectsTierValueAsDate(t *testing.T) {
	t.Parallel()
	html := `
<table>
  <tr><td>标题</td><td><a href="/fgk/t1.html">测绘资质管理办法有关规定</a></td></tr>
  <tr><td>公布日期</td><td>甲级</td></tr>
</table>`
	p := NewRecordTable(fSource(), nil)
	policies := p.Parse(mustDoc(t, html), "")
	require.Len(t, policies, 1)
	require.Empty(t, policies[0].PubDate)
}

func TestRecordTable_Parse_PermissiveFallback(t *testing.T) {
	t.Parallel()
	html := `
<table>
  <tr><td>01</td><td><a href="/fgk/t2.html">关于规范临时用地管理的通知全文</a></td></tr>
  <tr><td>02</td><td>其他内容</td></tr>
</table>`
	p := NewRecordTable(fSource(), nil)
	policies := p.Parse(mustDoc(t, html), "")
	require.Len(t, policies, 1)
	require.Equal(t, "关于规范临时用地管理的通知全文", policies[0].Title)
	require.Equal(t, "https://f.mnr.gov.cn/fgk/t2.html", policies[0].SourceURL)
}

func TestRegistry_ForSource(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(nil)

	p := reg.ForSource(giSource())
	require.IsType(t, &FlatTable{}, p)

	p = reg.ForSource(fSource())
	require.IsType(t, &RecordTable{}, p)

	p = reg.ForSource(model.DataSource{Name: "未知来源", BaseURL: "https://example.gov.cn"})
	require.IsType(t, &FlatTable{}, p)
}

func TestRegistry_RegisterOverride(t *testing.T) {
	t.Parallel()
	reg := NewRegistry(nil)
	reg.Register("example.gov.cn", func(src model.DataSource, log *zap.Logger) Parser {
		return NewRecordTable(src, log)
	})
	p := reg.ForSource(model.DataSource{BaseURL: "https://example.gov.cn/search"})
	require.IsType(t, &RecordTable{}, p)
}

func TestNormalizeDate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"2023年05月01日", "2023-05-01"},
		{"2023-05-01", "2023-05-01"},
		{"2023/05/01", "2023-05-01"},
		{"2023.05.01", "2023-05-01"},
		{"2023年5月1日", "2023-05-01"},
		{"20230501", "20230501"}, // plausible but unknown layout passes through
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, NormalizeDate(tt.in), "input %q", tt.in)
	}
}

func TestParseJSONListing(t *testing.T) {
	t.Parallel()
	src := giSource()

	t.Run("results envelope", func(t *testing.T) {
		t.Parallel()
		payload := []byte(`{"results": [
			{"title": "矿产资源规划通知", "pubdate": "2023年05月01日", "filenum": "自然资发〔2023〕12号",
			 "url": "/gk/t1.html", "summary": "通知摘要", "status": "现行有效"}
		]}`)
		policies, err := ParseJSONListing(payload, src, "矿产资源")
		require.NoError(t, err)
		require.Len(t, policies, 1)
		require.Equal(t, "矿产资源规划通知", policies[0].Title)
		require.Equal(t, "2023-05-01", policies[0].PubDate)
		require.Equal(t, "自然资发〔2023〕12号", policies[0].DocNumber)
		require.Equal(t, "https://gi.mnr.gov.cn/gk/t1.html", policies[0].SourceURL)
		require.Equal(t, "通知摘要", policies[0].Content)
		require.Equal(t, "现行有效", policies[0].Validity)
		require.Equal(t, "矿产资源", policies[0].Category)
	})

	t.Run("data envelope", func(t *testing.T) {
		t.Parallel()
		payload := []byte(`{"data": [{"title": "甲", "publishdate": "2022-01-02", "url": "https://gi.mnr.gov.cn/t2.html"}]}`)
		policies, err := ParseJSONListing(payload, src, "")
		require.NoError(t, err)
		require.Len(t, policies, 1)
		require.Equal(t, "2022-01-02", policies[0].PubDate)
	})

	t.Run("bare array", func(t *testing.T) {
		t.Parallel()
		payload := []byte(`[{"title": "乙"}, {"title": "丙"}]`)
		policies, err := ParseJSONListing(payload, src, "")
		require.NoError(t, err)
		require.Len(t, policies, 2)
	})

	t.Run("titleless items skipped", func(t *testing.T) {
		t.Parallel()
		payload := []byte(`{"results": [
			{"title": "", "url": "/gk/t3.html"},
			{"title": "  ", "url": "/gk/t4.html"},
			{"title": "有标题", "url": "/gk/t5.html"}
		]}`)
		policies, err := ParseJSONListing(payload, src, "")
		require.NoError(t, err)
		require.Len(t, policies, 1)
		require.Equal(t, "有标题", policies[0].Title)
	})

	t.Run("malformed payload", func(t *testing.T) {
		t.Parallel()
		_, err := ParseJSONListing([]byte(`not json`), src, "")
		require.Error(t, err)
	})
}
