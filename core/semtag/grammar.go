package semtag

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// markupLexer switches into the Tag state on "<" or "</" and back out on
// ">" or "/>". Everything else is text.
var markupLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "EndOpen", Pattern: `</`, Action: lexer.Push("Tag")},
		{Name: "Open", Pattern: `<`, Action: lexer.Push("Tag")},
		{Name: "Text", Pattern: `[^<]+`},
	},
	"Tag": {
		{Name: "Close", Pattern: `/?>`, Action: lexer.Pop()},
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "String", Pattern: `"[^"]*"|'[^']*'`},
		{Name: "Eq", Pattern: `=`},
		{Name: "Ident", Pattern: `[^\s"'=<>/]+`},
	},
})

//nolint:govet // participle grammar tags are not standard struct tags
type markupDoc struct {
	Items []*markupItem `@@*`
}

//nolint:govet // participle grammar tags are not standard struct tags
type markupItem struct {
	End   *endTag   `  @@`
	Start *startTag `| @@`
	Text  *string   `| @Text`
}

//nolint:govet // participle grammar tags are not standard struct tags
type startTag struct {
	Pos   lexer.Position
	Name  string      `Open @Ident`
	Attrs []*attrNode `@@*`
	Close string      `@Close`
}

//nolint:govet // participle grammar tags are not standard struct tags
type attrNode struct {
	Key   string  `@Ident`
	Value *string `( Eq @( String | Ident ) )?`
}

//nolint:govet // participle grammar tags are not standard struct tags
type endTag struct {
	Pos  lexer.Position
	Name string `EndOpen @Ident Close`
}

var markupParser = participle.MustBuild[markupDoc](
	participle.Lexer(markupLexer),
	participle.Elide("Whitespace"),
)

func (s *startTag) selfClosing() bool {
	return s.Close == "/>"
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
