package textclean

// charReplacements maps typographic and invisible Unicode variants to
// ASCII-safe or canonical equivalents. Escape forms are used on purpose:
// most of these characters are invisible or indistinguishable in an editor.
// The table mirrors the artifacts government CMS exports are known to emit.
var charReplacements = map[rune]string{
	// Spaces and invisible formatting characters.
	'\u00a0': " ", // no-break space
	'\u2002': " ", // en space
	'\u2003': " ", // em space
	'\u2004': " ", // three-per-em space
	'\u2005': " ", // four-per-em space
	'\u2006': " ", // six-per-em space
	'\u2007': " ", // figure space
	'\u2008': " ", // punctuation space
	'\u2009': " ", // thin space
	'\u200a': " ", // hair space
	'\u200b': "", // zero width space
	'\u200c': "", // zero width non-joiner
	'\u200d': "", // zero width joiner
	'\u200e': "", // left-to-right mark
	'\u200f': "", // right-to-left mark
	'\u2028': "\n", // line separator
	'\u2029': "\n", // paragraph separator
	'\u202a': "", // directional embedding/override controls
	'\u202b': "",
	'\u202c': "",
	'\u202d': "",
	'\u202e': "",
	'\u202f': " ", // narrow no-break space
	'\u205f': " ", // medium mathematical space
	'\u2060': "", // word joiner
	'\u2061': "", // invisible function application
	'\u2062': "", // invisible times
	'\u2063': "", // invisible separator
	'\u2064': "", // invisible plus
	'\u2066': "", // directional isolate controls
	'\u2067': "",
	'\u2068': "",
	'\u2069': "",
	'\ufeff': "", // byte order mark

	// Hyphens and dashes.
	'\u00ad': "-", // soft hyphen
	'\u2010': "-", // hyphen
	'\u2011': "-", // non-breaking hyphen
	'\u2012': "-", // figure dash
	'\u2013': "-", // en dash
	'\u2014': "-", // em dash
	'\u2015': "-", // horizontal bar
	'\u2212': "-", // minus sign

	// Slashes.
	'\u2044': "/", // fraction slash
	'\u2215': "/", // division slash

	// Quotes.
	'\u2018': "'", // left single quote
	'\u2019': "'", // right single quote
	'\u201a': "'", // low single quote
	'\u201b': "'", // reversed single quote
	'\u201c': `"`, // left double quote
	'\u201d': `"`, // right double quote
	'\u201e': `"`, // low double quote
	'\u201f': `"`, // reversed double quote
	'\u2039': "<", // single left angle quote
	'\u203a': ">", // single right angle quote
	'\u00ab': "<<", // left double angle quote
	'\u00bb': ">>", // right double angle quote

	// Dots and bullets.
	'\u2026': "...", // horizontal ellipsis
	'\u2027': ".", // hyphenation point
	'\u2219': "\u00b7", // bullet operator to middle dot

	// Symbols.
	'\u00a9': "(c)", // copyright
	'\u00ae': "(r)", // registered
	'\u2122': "(tm)", // trademark
}

// Page-furniture fragments dropped when they occupy an entire short line.
var noiseLineVocabulary = []string{
	"【字号：大中小】",
	"【打印】",
	"【仅内容打印】",
	"【关闭】",
	"【下载】",
	"打印",
	"分享到",
	"字号",
	"关闭",
	"下载",
	"仅内容打印",
	"分享",
	"收藏",
	"返回顶部",
	"大",
	"中",
	"小",
}

// Navigation phrases dropped anywhere on a short line.
var noisePhrases = []string{
	"标题文号机构正文全部高级检索",
	"高级检索",
}

// Field labels that, when stacked on consecutive lines, indicate a duplicated
// label/value table dump rather than body text.
var metadataLabels = []string{
	"名称",
	"文号",
	"发布机构",
	"业务类型",
	"废止记录",
	"成文时间",
	"效力级别",
	"来源",
	"时效状态",
	"标题",
}

// Value-side markers for the same metadata blocks.
var metadataValueMarkers = []string{
	"年", "月", "日", "部门", "规范性文件", "现行有效", "废止",
}
