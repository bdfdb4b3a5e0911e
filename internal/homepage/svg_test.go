package homepage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docportal/internal/features"
)

func TestSVGInliner_AppliesCardAttributes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "icon.svg"), []byte(`<svg xmlns="http://www.w3.org/2000/svg" fill="black" id="old"><circle r="4"/></svg>`), 0o600))

	got, err := SVGInliner{StaticDir: dir}.Inline(features.IconVisual{
		Src: "/icon.svg", ID: "standards", Class: "featureSvg", Role: "img", Fill: "#728AC5", Color: "#728AC5",
	})
	require.NoError(t, err)

	out := string(got)
	assert.Contains(t, out, `fill="#728AC5"`)
	assert.Contains(t, out, `id="standards"`)
	assert.Contains(t, out, `style="color: #728AC5"`)
	assert.Contains(t, out, `role="img"`)
	assert.NotContains(t, out, "black")
	assert.Contains(t, out, "<circle")
}

func TestSVGInliner_Rejects(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plain.svg"), []byte(`<p>not an svg</p>`), 0o600))
	inliner := SVGInliner{StaticDir: dir}

	for _, src := range []string{"https://cdn.example.com/a.svg", "/logo.png", "/../secret.svg", "/missing.svg", "/plain.svg"} {
		_, err := inliner.Inline(features.IconVisual{Src: src})
		assert.Error(t, err, src)
	}

	_, err := SVGInliner{}.Inline(features.IconVisual{Src: "/plain.svg"})
	assert.Error(t, err)
}

func TestSVGInliner_StripsActiveContent(t *testing.T) {
	dir := t.TempDir()
	icon := `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" onclick="alert(1)">` +
		`<a href="javascript:alert(1)"><circle r="4"/>` +
		`<animate attributeName="href" to="javascript:alert(2)"/>` +
		`<set attributeName="xlink:href" to="data:text/html,x"/>` +
		`<animateTransform attributeName="transform" type="rotate" from="0" to="360"/>` +
		`<animateMotion path="M0 0"/></a>` +
		`<foreignObject><div>html</div></foreignObject>` +
		`<script>alert(3)</script></svg>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "icon.svg"), []byte(icon), 0o600))

	got, err := SVGInliner{StaticDir: dir}.Inline(features.IconVisual{Src: "/icon.svg"})
	require.NoError(t, err)

	out := string(got)
	for _, banned := range []string{"javascript:", "data:", "onclick", "<animate", "<set", "<script", "foreignObject", "<div"} {
		assert.NotContains(t, out, banned)
	}
	assert.Contains(t, out, "<circle")
	assert.Contains(t, out, "<a")
}
