// Package highlight renders code snippets to syntax-highlighted HTML using
// the Chroma library (the same engine behind Hugo's code blocks).
//
// CHROMA IN 30 SECONDS:
// Chroma splits highlighting into three pieces, mirroring Pygments:
//   - a LEXER tokenises source text for one language ("python", "go", ...)
//   - a STYLE maps token types to colours ("friendly", "monokai", ...)
//   - a FORMATTER writes the coloured tokens out (we use the HTML formatter)
//
// Lexers and styles live in registries keyed by name. The registry IS our
// enumeration of valid `language` and `style` values — see registry.go.
//
// The renderer is pure and deterministic: identical inputs always produce
// byte-identical HTML, and nothing here touches the network or disk. That
// makes the output safe to cache in the database at save time.
package highlight

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Sentinel errors for unknown registry names.
//
// The service layer validates language/style before calling Render, so in
// normal operation these never fire — but the renderer checks independently
// rather than trusting its callers.
var (
	ErrUnsupportedLanguage = fmt.Errorf("unsupported language")
	ErrUnsupportedStyle    = fmt.Errorf("unsupported style")
)

// Renderer turns snippet code into a complete, self-contained HTML document.
//
// It carries no state; the struct exists so the service layer can depend on
// it (or a test double) by injection rather than calling package functions.
type Renderer struct{}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces a full HTML document for the given code.
//
// OUTPUT SHAPE:
//
//	<!DOCTYPE html>
//	<html> <head> <title>…</title> <style>…chroma CSS…</style> </head>
//	<body class="bg"> [<h2>title</h2>] <highlighted code> </body> </html>
//
//   - A non-empty title becomes both the document <title> and a visible
//     <h2> heading. An empty title renders neither.
//   - lineNumbers=true puts the numbers in a separate table column
//     (Chroma's "lntable" layout) so they don't get selected along with
//     the code when copying.
//   - The CSS is embedded in the <head>, so the document needs no external
//     stylesheet — it can be served as-is with Content-Type: text/html.
func (r *Renderer) Render(code, language, style, title string, lineNumbers bool) (string, error) {
	// lexers.Get resolves names AND aliases ("python", "py", "python3" all
	// find the Python lexer). nil means the name is not registered.
	lexer := lexers.Get(language)
	if lexer == nil {
		return "", fmt.Errorf("highlight: language %q: %w", language, ErrUnsupportedLanguage)
	}
	// Coalesce merges runs of identical token types — smaller output,
	// same rendering.
	lexer = chroma.Coalesce(lexer)

	// styles.Get falls back to a default style for unknown names, which
	// would silently mask typos. Check the registry map directly instead.
	sty, ok := styles.Registry[style]
	if !ok {
		return "", fmt.Errorf("highlight: style %q: %w", style, ErrUnsupportedStyle)
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("highlight: tokenising code: %w", err)
	}

	// WithClasses(true) makes the formatter emit class names instead of
	// inline style attributes; the matching CSS is written into the
	// document head below. This keeps the body markup readable and the
	// colour palette swappable by style sheet alone.
	formatter := chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.WithLineNumbers(lineNumbers),
		chromahtml.LineNumbersInTable(lineNumbers),
	)

	var css bytes.Buffer
	if err := formatter.WriteCSS(&css, sty); err != nil {
		return "", fmt.Errorf("highlight: writing CSS for style %q: %w", style, err)
	}

	var body bytes.Buffer
	if err := formatter.Format(&body, sty, iterator); err != nil {
		return "", fmt.Errorf("highlight: formatting code: %w", err)
	}

	// Assemble the document. The title is user input, so it is escaped
	// with html/template's escaper — the code itself is escaped by the
	// Chroma formatter already.
	var doc bytes.Buffer
	doc.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	if title != "" {
		fmt.Fprintf(&doc, "<title>%s</title>\n", template.HTMLEscapeString(title))
	}
	doc.WriteString("<style>\n")
	doc.Write(css.Bytes())
	doc.WriteString("\n</style>\n</head>\n<body class=\"bg\">\n")
	if title != "" {
		fmt.Fprintf(&doc, "<h2>%s</h2>\n", template.HTMLEscapeString(title))
	}
	doc.Write(body.Bytes())
	doc.WriteString("\n</body>\n</html>\n")

	return doc.String(), nil
}
