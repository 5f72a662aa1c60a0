package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mnr-tools/policy-crawler/internal/counter"
	"github.com/mnr-tools/policy-crawler/internal/model"
)

func samplePolicy() *model.Policy {
	return &model.Policy{
		Title:     "关于加强矿产资源管理的通知",
		PubDate:   "2023-05-01",
		DocNumber: "自然资发〔2023〕12号",
		SourceURL: "https://gi.mnr.gov.cn/gk/t1.html",
		Content:   "第一条 为了加强矿产资源管理，制定本规定。",
		Level:     "自然资源部",
		Validity:  "现行有效",
		CrawlTime: "2023-05-02 08:00:00",
	}
}

func TestMarkdownWriter_Write(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w := NewMarkdownWriter(dir, counter.NewService(dir), nil)

	p := samplePolicy()
	path, err := w.Write(p)
	require.NoError(t, err)
	require.Equal(t, path, p.MarkdownPath)
	require.True(t, strings.HasPrefix(filepath.Base(path), "0001_"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	require.True(t, strings.HasPrefix(text, "---"))
	require.Contains(t, text, `title: "关于加强矿产资源管理的通知"`)
	require.Contains(t, text, `doc_number: "自然资发〔2023〕12号"`)
	require.Contains(t, text, "# 关于加强矿产资源管理的通知")
	require.Contains(t, text, "## 基本信息")
	require.Contains(t, text, "**发文字号**: 自然资发〔2023〕12号")
	require.Contains(t, text, "## 正文内容")
	require.Contains(t, text, "第一条 为了加强矿产资源管理")
}

func TestMarkdownWriter_NumbersFilesSequentially(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w := NewMarkdownWriter(dir, counter.NewService(dir), nil)

	first := samplePolicy()
	_, err := w.Write(first)
	require.NoError(t, err)

	second := samplePolicy()
	second.Title = "关于开展耕地保护督察的函"
	path, err := w.Write(second)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(filepath.Base(path), "0002_"))
}

func TestMarkdownWriter_EmptyContentPlaceholder(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w := NewMarkdownWriter(dir, counter.NewService(dir), nil)

	p := samplePolicy()
	p.Content = ""
	path, err := w.Write(p)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "正文内容无法自动获取")
}

func TestJSONWriter_Write(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	w := NewJSONWriter(dir, nil)

	p := samplePolicy()
	path, err := w.Write(p)
	require.NoError(t, err)
	require.Equal(t, path, p.JSONPath)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"title": "关于加强矿产资源管理的通知"`)
	require.Contains(t, string(data), `"doc_number": "自然资发〔2023〕12号"`)
}

func TestSafeID(t *testing.T) {
	t.Parallel()

	// Letter-and-digit identities survive with separators replaced.
	require.Equal(t, "t1_u1", safeID("t1|u1"))
	require.Equal(t,
		"矿产资源通知_https___gi.mnr.gov.cn_t1.html",
		safeID("矿产资源通知|https://gi.mnr.gov.cn/t1.html"))

	// Identities with hostile punctuation are digest-shortened but keep a
	// readable prefix.
	id := safeID("《矿业权出让交易规则》（试行）|https://f.mnr.gov.cn/t2.html")
	require.LessOrEqual(t, len([]rune(id)), 37)
	require.Contains(t, id, "_")

	// Same identity, same name.
	require.Equal(t, id, safeID("《矿业权出让交易规则》（试行）|https://f.mnr.gov.cn/t2.html"))
}

func TestSafeTitle(t *testing.T) {
	t.Parallel()
	p := samplePolicy()
	require.Equal(t, "关于加强矿产资源管理的通知", safeTitle(p))

	p.Title = "《办法》（试行）"
	require.Equal(t, "办法试行", safeTitle(p))

	p.Title = "///"
	require.True(t, strings.HasPrefix(safeTitle(p), "政策_"))
}
