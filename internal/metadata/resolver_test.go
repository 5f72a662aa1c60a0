package metadata

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/mnr-tools/policy-crawler/internal/model"
)

const detailLabelBlock = `
<html><body>
<div class="dtl-middle">
  <div class="mid-1">
    <span>发文字号：</span>
    <span>发布机构：</span>
    <span>业务类型：</span>
  </div>
  <div class="mid-2">
    <span>自然资发〔2023〕12号</span>
    <span>自然资源部办公厅</span>
    <span>矿产资源管理</span>
  </div>
  <div class="mid-3">
    <span>成文时间：</span>
    <span>效力级别：</span>
    <span>实施日期：</span>
  </div>
  <div class="mid-4">
    <span>2023年5月1日</span>
    <span>部门规范性文件</span>
    <span>2023年6月1日</span>
  </div>
</div>
</body></html>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestResolver_Resolve_LabelBlock(t *testing.T) {
	t.Parallel()
	r := NewResolver(nil)
	f := r.Resolve(mustDoc(t, detailLabelBlock))

	require.Equal(t, "自然资发〔2023〕12号", f.DocNumber)
	require.Equal(t, "自然资源部办公厅", f.Publisher)
	require.Equal(t, "矿产资源管理", f.Category)
	require.Equal(t, "2023年5月1日", f.PubDate)
	require.Equal(t, "部门规范性文件", f.Validity)
	require.Equal(t, "2023年6月1日", f.EffectiveDate)
}

func TestResolver_Resolve_DateValidityGate(t *testing.T) {
	t.Parallel()
	html := `
<div class="dtl-middle">
  <div class="mid-3"><span>发布日期：</span></div>
  <div class="mid-4"><span>甲级</span></div>
</div>`
	r := NewResolver(nil)
	f := r.Resolve(mustDoc(t, html))
	require.Empty(t, f.PubDate)
}

func TestResolver_Resolve_TableFallback(t *testing.T) {
	t.Parallel()
	html := `
<table>
  <tr><td>发文字号</td><td>国土资发〔2017〕8号</td></tr>
  <tr><td>发布日期</td><td>2017-03-20</td></tr>
  <tr><td>效力级别</td><td>部门规章</td></tr>
</table>`
	r := NewResolver(nil)
	f := r.Resolve(mustDoc(t, html))

	require.Equal(t, "国土资发〔2017〕8号", f.DocNumber)
	require.Equal(t, "2017-03-20", f.PubDate)
	require.Equal(t, "部门规章", f.Validity)
	// No explicit publisher on the page: inferred from the prefix.
	require.Equal(t, "国土资源部", f.Publisher)
}

func TestResolver_Resolve_FirstNonEmptyWins(t *testing.T) {
	t.Parallel()
	html := `
<div class="dtl-middle">
  <div class="mid-1"><span>发文字号：</span><span>文号：</span></div>
  <div class="mid-2"><span>自然资发〔2023〕1号</span><span>重复文号值</span></div>
</div>`
	r := NewResolver(nil)
	f := r.Resolve(mustDoc(t, html))
	require.Equal(t, "自然资发〔2023〕1号", f.DocNumber)
}

func TestInferPublisher(t *testing.T) {
	t.Parallel()
	tests := []struct {
		docNumber string
		want      string
		ok        bool
	}{
		{"自然资发〔2023〕12号", "自然资源部", true},
		{"国土资发〔2016〕5号", "国土资源部", true},
		{"国土调查办发〔2019〕2号", "国土资源部", true},
		{"国土资源部令第80号", "国土资源部", true},
		{"京规自发〔2023〕1号", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := InferPublisher(tt.docNumber)
		require.Equal(t, tt.ok, ok, "doc number %q", tt.docNumber)
		require.Equal(t, tt.want, got, "doc number %q", tt.docNumber)
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	t.Run("fills empty fields only", func(t *testing.T) {
		t.Parallel()
		p := &model.Policy{Title: "测试", DocNumber: "原有文号", PubDate: "2023-05-01"}
		Merge(p, Fields{
			DocNumber: "新文号",
			Publisher: "自然资源部",
			PubDate:   "2022-01-01",
		})
		require.Equal(t, "原有文号", p.DocNumber)
		require.Equal(t, "自然资源部", p.Publisher)
		require.Equal(t, "2023-05-01", p.PubDate)
	})

	t.Run("validated date beats unvalidated", func(t *testing.T) {
		t.Parallel()
		p := &model.Policy{PubDate: "发布时间不详"}
		Merge(p, Fields{PubDate: "2023年5月1日"})
		require.Equal(t, "2023-05-01", p.PubDate)
	})

	t.Run("unvalidated date never overwrites", func(t *testing.T) {
		t.Parallel()
		p := &model.Policy{PubDate: "2023-05-01"}
		Merge(p, Fields{PubDate: "不明"})
		require.Equal(t, "2023-05-01", p.PubDate)
	})

	t.Run("effective date is normalized", func(t *testing.T) {
		t.Parallel()
		p := &model.Policy{}
		Merge(p, Fields{EffectiveDate: "2023年6月1日"})
		require.Equal(t, "2023-06-01", p.EffectiveDate)
	})
}
