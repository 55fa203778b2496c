package verifier

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHTMLIdempotent(t *testing.T) {
	got, err := normalizeHTML(fortunesReference)
	require.NoError(t, err)
	assert.Equal(t, fortunesReference, got)

	again, err := normalizeHTML(got)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestNormalizeTextEquivalence(t *testing.T) {
	tests := []struct {
		want   string
		inputs []string
	}{
		{"&lt;script&gt;", []string{"&lt;script&gt;", "&#60;script&#62;", "&#060;script&#062;", "&#x3c;script&#x3e;"}},
		{"aren&apos;t", []string{"aren't", "aren&#39;t", "aren&#039;t", "aren&#x27;t", "aren&apos;t"}},
		{"&quot;alert&quot;", []string{`"alert"`, "&#34;alert&#34;", "&#034;alert&#034;", "&#x22;alert&#x22;"}},
		{"4.33e+67", []string{"4.33e&#43;67", "4.33e&#043;67", "4.33e&#x2b;67"}},
		{"/script", []string{"&#47;script", "&#047;script", "&#x2f;script"}},
		{"()", []string{"&#40;&#41;", "&#040;&#041;", "&#x28;&#x29;"}},
		{"fish &amp; chips", []string{"fish &amp; chips", "fish &#38; chips"}},
	}

	for _, tt := range tests {
		for _, input := range tt.inputs {
			got, err := normalizeHTML("<td>" + input + "</td>")
			require.NoError(t, err)
			assert.Equal(t, "<td>"+tt.want+"</td>", got, "normalizeHTML(%q)", input)
		}
	}
}

func TestVerifyFortuneRejectsDoubleEscaping(t *testing.T) {
	doubled := strings.Replace(fortunesReference,
		"&lt;script&gt;alert(&quot;This should not be displayed in a browser alert box.&quot;);&lt;/script&gt;",
		"&amp;lt;script&amp;gt;alert(&amp;quot;This should not be displayed in a browser alert box.&amp;quot;);&amp;lt;/script&amp;gt;", 1)
	require.NotEqual(t, fortunesReference, doubled)

	m := newTestMessages()
	assert.False(t, verifyFortune(m, doubled))
	require.Len(t, m.Errors(), 1)
	assert.Equal(t, "Invalid Fortunes", m.Errors()[0].ShortMessage)
}

func TestNormalizeHTMLEquivalentMarkup(t *testing.T) {
	page := `<!DOCTYPE HTML>
<html>
  <head><title>Fortunes</title></head>
  <body>
    <table class="fortunes">
      <tr><th>id</th><th>message</th></tr>
      <tr><td>11</td><td>&lt;script&gt;alert(&#34;This should not be displayed in a browser alert box.&#34;);&lt;/script&gt;</td></tr>
      <tr><td>2</td><td>A computer scientist is someone who fixes things that aren&#39;t broken.</td></tr>
    </table>
    <!-- rendered -->
  </body>
</html>`

	got, err := normalizeHTML(page)
	require.NoError(t, err)
	assert.Equal(t, "<!doctype html><html><head><title>Fortunes</title></head><body><table>"+
		"<tr><th>id</th><th>message</th></tr>"+
		"<tr><td>11</td><td>&lt;script&gt;alert(&quot;This should not be displayed in a browser alert box.&quot;);&lt;/script&gt;</td></tr>"+
		"<tr><td>2</td><td>A computer scientist is someone who fixes things that aren&apos;t broken.</td></tr>"+
		"</table></body></html>", got)
}

func TestVerifyFortune(t *testing.T) {
	m := newTestMessages()
	assert.True(t, verifyFortune(m, fortunesReference))
	assert.Zero(t, m.Len())

	m = newTestMessages()
	assert.True(t, verifyFortune(m, strings.ToUpper(fortunesReference[:30])+fortunesReference[30:]))

	m = newTestMessages()
	broken := strings.Replace(fortunesReference, "<tr><td>9</td><td>Feature: A bug with seniority.</td></tr>", "", 1)
	assert.False(t, verifyFortune(m, broken))
	require.Len(t, m.Errors(), 1)
	assert.Equal(t, "Invalid Fortunes", m.Errors()[0].ShortMessage)
}

func TestDynamicFortunesReference(t *testing.T) {
	row := "<tr><td>13</td><td>フレームワークのベンチマーク</td></tr>"
	got := dynamicFortunesReference(13, 1, "フレームワークのベンチマーク")

	assert.True(t, strings.HasSuffix(got, row+fortunesTrailer))
	assert.Equal(t, utf8.RuneCountInString(fortunesReference)+utf8.RuneCountInString(row), utf8.RuneCountInString(got))
	assert.Equal(t, fortunesReference, dynamicFortunesReference(13, 0, "x"))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", preview("abc", 5))
	assert.Equal(t, "ab...", preview("abc", 2))
	assert.Equal(t, "フレ...", preview("フレーム", 2))
}
