package textclean

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClean_RejoinsSplitArticleNumber(t *testing.T) {
	t.Parallel()
	require.Equal(t, "第1条", Clean("第\n1\n条"))
}

func TestClean_RejoinsSplitWords(t *testing.T) {
	t.Parallel()
	require.Equal(t, "你公司", Clean("你\n公\n司"))
}

func TestClean_RejoinsBracketSpans(t *testing.T) {
	t.Parallel()
	raw := "关于印发《\n矿业权评估管理办法\n》的通知，现将有关事项公告如下，请遵照执行。"
	got := Clean(raw)
	require.Equal(t, "关于印发《矿业权评估管理办法》的通知，现将有关事项公告如下，请遵照执行。", got)
}

func TestClean_RejoinsDocNumberFragments(t *testing.T) {
	t.Parallel()
	raw := "依据自然资发〔\n2023\n〕相关文件精神，对本年度矿产资源勘查项目作出如下安排部署。"
	got := Clean(raw)
	require.Contains(t, got, "自然资发〔2023〕")
	require.NotContains(t, got, "〔\n")
}

func TestClean_RemovesNoiseLines(t *testing.T) {
	t.Parallel()
	raw := strings.Join([]string{
		"【字号：大中小】",
		"打印",
		"分享到",
		"各省、自治区、直辖市自然资源主管部门应当按照本通知要求开展相关工作。",
		"关闭",
	}, "\n")
	got := Clean(raw)
	require.Equal(t, "各省、自治区、直辖市自然资源主管部门应当按照本通知要求开展相关工作。", got)
}

func TestClean_RemovesMetadataBlockRun(t *testing.T) {
	t.Parallel()
	raw := strings.Join([]string{
		"第一段正文内容足够长因此会被判定为正常的文档正文而予以保留。",
		"名称",
		"文号",
		"发布机构",
		"自然资源部门",
		"成文时间",
		"2023年01月01日",
		"第二段正文内容同样足够长因此会被判定为正常的文档正文而予以保留。",
	}, "\n")
	got := Clean(raw)
	require.NotContains(t, got, "发布机构")
	require.NotContains(t, got, "2023年01月01日")
	require.Contains(t, got, "第一段正文内容")
	require.Contains(t, got, "第二段正文内容")
}

func TestClean_KeepsShortMetadataLookingRun(t *testing.T) {
	t.Parallel()
	raw := strings.Join([]string{
		"第一段正文内容足够长因此会被判定为正常的文档正文而予以保留。",
		"名称",
		"文号",
		"成文时间",
		"第二段正文内容同样足够长因此会被判定为正常的文档正文而予以保留。",
	}, "\n")
	got := Clean(raw)
	require.Contains(t, got, "名称")
	require.Contains(t, got, "文号")
	require.Contains(t, got, "成文时间")
}

func TestCleanWith_CustomMetadataThreshold(t *testing.T) {
	t.Parallel()
	raw := strings.Join([]string{
		"第一段正文内容足够长因此会被判定为正常的文档正文而予以保留。",
		"名称",
		"文号",
		"第二段正文内容同样足够长因此会被判定为正常的文档正文而予以保留。",
	}, "\n")
	got := CleanWith(raw, Options{MetadataRunThreshold: 2, LeadingTrimMax: 8})
	require.NotContains(t, got, "名称")
	require.NotContains(t, got, "文号")
	require.Contains(t, got, "第一段正文内容")
}

func TestClean_CollapsesBlankRuns(t *testing.T) {
	t.Parallel()
	raw := "第一段正文内容足够长可以视为正常的正文段落。\n\n\n\n\n第二段正文内容同样足够长可以视为正常的正文段落。"
	got := Clean(raw)
	require.Equal(t,
		"第一段正文内容足够长可以视为正常的正文段落。\n\n第二段正文内容同样足够长可以视为正常的正文段落。",
		got)
}

func TestClean_TrimsLeadingMetadataLines(t *testing.T) {
	t.Parallel()
	raw := strings.Join([]string{
		"成文时间",
		"2023年05月01日",
		"本通知自印发之日起施行，各地自然资源主管部门应当结合实际认真贯彻落实。",
	}, "\n")
	got := Clean(raw)
	require.Equal(t, "本通知自印发之日起施行，各地自然资源主管部门应当结合实际认真贯彻落实。", got)
}

func TestClean_StripsTrailingPageFurniture(t *testing.T) {
	t.Parallel()
	raw := strings.Join([]string{
		"本办法由自然资源主管部门负责解释，自发布之日起三十日后施行。",
		"相关附件下载",
	}, "\n")
	got := Clean(raw)
	require.Equal(t, "本办法由自然资源主管部门负责解释，自发布之日起三十日后施行。", got)
}

func TestClean_EmptyInput(t *testing.T) {
	t.Parallel()
	require.Equal(t, "", Clean(""))
	require.Equal(t, "", Clean("   \n\n  "))
}

func TestNormalizeChars(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "html entity", in: "甲&nbsp;乙", want: "甲 乙"},
		{name: "em dash", in: "a—b", want: "a-b"},
		{name: "smart double quotes", in: "“引文”", want: `"引文"`},
		{name: "smart single quotes", in: "‘x’", want: "'x'"},
		{name: "zero width space", in: "矿\u200b产", want: "矿产"},
		{name: "byte order mark", in: "\ufeff标题", want: "标题"},
		{name: "ellipsis", in: "略…", want: "略..."},
		{name: "space run", in: "a  \t  b", want: "a b"},
		{name: "control characters", in: "a\x01\x02b", want: "ab"},
		{name: "line separator", in: "a\u2028b", want: "a\nb"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, NormalizeChars(tt.in))
		})
	}
}
