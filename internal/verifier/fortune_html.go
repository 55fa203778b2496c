package verifier

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
)

// fortunesReference is the canonical rendering of the seeded fortune table
const fortunesReference = "<!doctype html><html><head><title>Fortunes</title></head><body><table><tr><th>id</th><th>message</th></tr><tr><td>11</td><td>&lt;script&gt;alert(&quot;This should not be displayed in a browser alert box.&quot;);&lt;/script&gt;</td></tr><tr><td>4</td><td>A bad random number generator: 1, 1, 1, 1, 1, 4.33e+67, 1, 1, 1</td></tr><tr><td>5</td><td>A computer program does what you tell it to do, not what you want it to do.</td></tr><tr><td>2</td><td>A computer scientist is someone who fixes things that aren&apos;t broken.</td></tr><tr><td>8</td><td>A list is only as strong as its weakest link. — Donald Knuth</td></tr><tr><td>0</td><td>Additional fortune added at request time.</td></tr><tr><td>3</td><td>After enough decimal places, nobody gives a damn.</td></tr><tr><td>7</td><td>Any program that runs right is obsolete.</td></tr><tr><td>10</td><td>Computers make very fast, very accurate mistakes.</td></tr><tr><td>6</td><td>Emacs is a nice operating system, but I prefer UNIX. — Tom Christaensen</td></tr><tr><td>9</td><td>Feature: A bug with seniority.</td></tr><tr><td>1</td><td>fortune: No such file or directory</td></tr><tr><td>12</td><td>フレームワークのベンチマーク</td></tr></table></body></html>"

const fortunesTrailer = "</table></body></html>"

// textNormalizer re-escapes character data. The tokenizer has already
// decoded every named and numeric reference, so each character has exactly
// one canonical spelling and a double-escaped page stays distinguishable.
var textNormalizer = strings.NewReplacer(
	"&", "&amp;",
	"'", "&apos;",
	`"`, "&quot;",
	">", "&gt;",
	"<", "&lt;",
)

// normalizeText converts character data to its canonical form
func normalizeText(s string) string {
	return textNormalizer.Replace(s)
}

// normalizeHTML re-emits markup in canonical form: doctype as
// <!doctype name>, tags without attributes, text through normalizeText.
// Comments and whitespace-only text between tags are dropped.
func normalizeHTML(input string) (string, error) {
	input = strings.NewReplacer("\n", "", "\r", "").Replace(input)
	z := html.NewTokenizer(strings.NewReader(input))

	var b strings.Builder
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return b.String(), err
			}
			return b.String(), nil
		case html.DoctypeToken:
			if fields := strings.Fields(string(z.Text())); len(fields) > 0 {
				b.WriteString("<!doctype " + strings.ToLower(fields[0]) + ">")
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			b.WriteString("<" + string(name) + ">")
		case html.EndTagToken:
			name, _ := z.TagName()
			b.WriteString("</" + string(name) + ">")
		case html.TextToken:
			text := string(z.Text())
			if strings.TrimSpace(text) == "" {
				continue
			}
			b.WriteString(normalizeText(text))
		}
	}
}

var folder = cases.Fold()

// equalFold compares two canonical strings ignoring case
func equalFold(a, b string) bool {
	return folder.String(a) == folder.String(b)
}

// dynamicFortunesReference is the canonical rendering after count fixture
// rows were added to the table.
func dynamicFortunesReference(firstID, count int, msg string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(fortunesReference, fortunesTrailer))
	for i := 0; i < count; i++ {
		b.WriteString("<tr><td>")
		b.WriteString(strconv.Itoa(firstID + i))
		b.WriteString("</td><td>")
		b.WriteString(msg)
		b.WriteString("</td></tr>")
	}
	b.WriteString(fortunesTrailer)
	return b.String()
}
