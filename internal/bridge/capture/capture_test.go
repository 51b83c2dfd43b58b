package capture

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uiscout/internal/config"
	"uiscout/internal/uitree"
)

const jsonCapture = `{
	"app": "com.example.mail",
	"screen": "InboxActivity",
	"root": {
		"class": "FrameLayout",
		"bounds": {"left": 0, "top": 0, "right": 1080, "bottom": 1920},
		"children": [
			{
				"class": "Button",
				"resource_id": "com.example.mail:id/compose",
				"text": "Compose",
				"clickable": true,
				"enabled": true,
				"bounds": {"left": 880, "top": 1700, "right": 1040, "bottom": 1860}
			},
			{
				"class": "EditText",
				"resource_id": "com.example.mail:id/search",
				"editable": true,
				"enabled": true
			}
		]
	}
}`

func TestDecodeJSONSnapshot(t *testing.T) {
	root, err := DecodeJSON(strings.NewReader(jsonCapture), "")
	require.NoError(t, err)

	attrs := root.Attrs()
	assert.Equal(t, "com.example.mail", attrs.App)
	assert.Equal(t, "InboxActivity", attrs.Screen)
	assert.Equal(t, "FrameLayout", attrs.Class)
	assert.Equal(t, 1080, attrs.Bounds.Right)

	require.Equal(t, 2, root.ChildCount())
	button := root.Child(0).Attrs()
	assert.Equal(t, "Button", button.Class)
	assert.Equal(t, "Compose", button.Text)
	assert.True(t, button.Clickable)
	assert.Equal(t, 1700, button.Bounds.Top)

	search := root.Child(1).Attrs()
	assert.True(t, search.Editable)
	assert.Equal(t, "com.example.mail:id/search", search.ResourceID)
}

func TestDecodeJSONAppFallback(t *testing.T) {
	t.Run("envelope app wins over default", func(t *testing.T) {
		root, err := DecodeJSON(strings.NewReader(jsonCapture), "com.other.app")
		require.NoError(t, err)
		assert.Equal(t, "com.example.mail", root.Attrs().App)
	})

	t.Run("default fills a bare snapshot", func(t *testing.T) {
		root, err := DecodeJSON(strings.NewReader(`{"root":{"class":"View"}}`), "com.other.app")
		require.NoError(t, err)
		assert.Equal(t, "com.other.app", root.Attrs().App)
	})
}

func TestDecodeJSONRejectsBadInput(t *testing.T) {
	_, err := DecodeJSON(strings.NewReader(`{"app":"x"}`), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root")

	_, err = DecodeJSON(strings.NewReader(`not json`), "")
	require.Error(t, err)
}

const htmlCapture = `<!DOCTYPE html>
<html>
<head><title>Example Login</title><script>boot();</script></head>
<body data-app="shop.example.com">
  <main id="content">
    <button id="submit" aria-label="Sign in now">Sign in</button>
    <input type="password" id="pass">
    <input type="hidden" name="csrf" value="tok">
    <a href="/help">Help</a>
    <div onclick="menu()">Menu</div>
    <button disabled id="upgrade">Upgrade</button>
    <script>track();</script>
  </main>
</body>
</html>`

func TestParseHTMLCapture(t *testing.T) {
	root, err := ParseHTML(strings.NewReader(htmlCapture), "fallback.app")
	require.NoError(t, err)

	attrs := root.Attrs()
	assert.Equal(t, "shop.example.com", attrs.App)
	assert.Equal(t, "Example Login", attrs.Screen)
	assert.Equal(t, "body", attrs.Class)

	byClass := collectByClass(root)

	buttons := byClass["button"]
	require.Len(t, buttons, 2)
	assert.Equal(t, "submit", buttons[0].ResourceID)
	assert.Equal(t, "Sign in now", buttons[0].Desc)
	assert.Equal(t, "Sign in", buttons[0].Text)
	assert.True(t, buttons[0].Clickable)
	assert.True(t, buttons[0].Enabled)
	assert.False(t, buttons[1].Enabled, "disabled button must not read enabled")

	inputs := byClass["input"]
	require.Len(t, inputs, 1, "hidden inputs are pruned")
	assert.True(t, inputs[0].Password)
	assert.True(t, inputs[0].Editable)
	assert.Equal(t, "pass", inputs[0].ResourceID)

	links := byClass["a"]
	require.Len(t, links, 1)
	assert.True(t, links[0].Clickable)
	assert.Equal(t, "Help", links[0].Text)

	divs := byClass["div"]
	require.Len(t, divs, 1)
	assert.True(t, divs[0].Clickable, "onclick makes an element clickable")

	assert.Empty(t, byClass["script"], "script content must never enter the tree")
}

func TestParseHTMLTreeShape(t *testing.T) {
	root, err := ParseHTML(strings.NewReader(htmlCapture), "")
	require.NoError(t, err)

	type row struct {
		Class, Resource, Text string
	}
	var got []row
	uitree.Walk(root, func(n uitree.Node, path string, depth int) bool {
		a := n.Attrs()
		got = append(got, row{Class: a.Class, Resource: a.ResourceID, Text: a.Text})
		return true
	})

	want := []row{
		{Class: "body"},
		{Class: "main", Resource: "content"},
		{Class: "button", Resource: "submit", Text: "Sign in"},
		{Class: "input", Resource: "pass"},
		{Class: "a", Text: "Help"},
		{Class: "div", Text: "Menu"},
		{Class: "button", Resource: "upgrade", Text: "Upgrade"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tree shape mismatch (-want +got):\n%s", diff)
	}
}

func TestParseHTMLDefaultApp(t *testing.T) {
	root, err := ParseHTML(strings.NewReader("<html><body><p>hi</p></body></html>"), "fallback.app")
	require.NoError(t, err)
	assert.Equal(t, "fallback.app", root.Attrs().App)
}

func TestDecodeSnapshotByExtension(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "shot.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonCapture), 0644))
	root, err := DecodeSnapshot(jsonPath, "")
	require.NoError(t, err)
	assert.Equal(t, "com.example.mail", root.Attrs().App)

	htmlPath := filepath.Join(dir, "shot.html")
	require.NoError(t, os.WriteFile(htmlPath, []byte(htmlCapture), 0644))
	root, err = DecodeSnapshot(htmlPath, "")
	require.NoError(t, err)
	assert.Equal(t, "shop.example.com", root.Attrs().App)

	txtPath := filepath.Join(dir, "shot.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0644))
	_, err = DecodeSnapshot(txtPath, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")

	_, err = DecodeSnapshot(filepath.Join(dir, "missing.json"), "")
	assert.ErrorIs(t, err, uitree.ErrTreeUnavailable)
}

func TestSnapshotInfo(t *testing.T) {
	dir := t.TempDir()

	versioned := filepath.Join(dir, "shot.json")
	require.NoError(t, os.WriteFile(versioned, []byte(`{"app":"com.example.mail","version":"4.2.1","root":{"class":"View"}}`), 0644))
	app, version, err := SnapshotInfo(versioned)
	require.NoError(t, err)
	assert.Equal(t, "com.example.mail", app)
	assert.Equal(t, "4.2.1", version)

	htmlPath := filepath.Join(dir, "shot.html")
	require.NoError(t, os.WriteFile(htmlPath, []byte(htmlCapture), 0644))
	app, version, err = SnapshotInfo(htmlPath)
	require.NoError(t, err)
	assert.Equal(t, "shop.example.com", app)
	assert.Empty(t, version, "html captures carry no version")

	_, _, err = SnapshotInfo(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, uitree.ErrTreeUnavailable)
}

func TestIsSnapshot(t *testing.T) {
	assert.True(t, IsSnapshot("a.json"))
	assert.True(t, IsSnapshot("b.HTML"))
	assert.True(t, IsSnapshot("c.htm"))
	assert.False(t, IsSnapshot("d.tmp"))
	assert.False(t, IsSnapshot("e"))
}

func TestReaderPicksNewestSnapshot(t *testing.T) {
	dir := t.TempDir()

	oldPath := filepath.Join(dir, "old.json")
	require.NoError(t, os.WriteFile(oldPath, []byte(`{"app":"com.example.mail","screen":"Old","root":{"class":"View"}}`), 0644))
	stale := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(oldPath, stale, stale))

	newPath := filepath.Join(dir, "new.json")
	require.NoError(t, os.WriteFile(newPath, []byte(`{"app":"com.example.mail","screen":"New","root":{"class":"View"}}`), 0644))

	r := NewReader(config.CaptureConfig{Dir: dir}, "com.example.mail")
	root, err := r.CurrentScreenRoot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "New", root.Attrs().Screen)
}

func TestReaderEmptyDir(t *testing.T) {
	r := NewReader(config.CaptureConfig{Dir: t.TempDir()}, "com.example.mail")
	_, err := r.CurrentScreenRoot(context.Background())
	assert.ErrorIs(t, err, uitree.ErrTreeUnavailable)
}

func TestReaderFollowsWatcher(t *testing.T) {
	dir := t.TempDir()

	followed := filepath.Join(dir, "followed.json")
	require.NoError(t, os.WriteFile(followed, []byte(`{"app":"com.example.mail","screen":"Followed","root":{"class":"View"}}`), 0644))

	// A newer file exists, but the watcher's settled snapshot wins.
	newer := filepath.Join(dir, "newer.json")
	require.NoError(t, os.WriteFile(newer, []byte(`{"app":"com.example.mail","screen":"Newer","root":{"class":"View"}}`), 0644))

	r := NewReader(config.CaptureConfig{Dir: dir}, "com.example.mail")
	r.FollowWatcher(&Watcher{latest: followed})

	root, err := r.CurrentScreenRoot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Followed", root.Attrs().Screen)
}

func collectByClass(root uitree.Node) map[string][]uitree.Attributes {
	out := make(map[string][]uitree.Attributes)
	uitree.Walk(root, func(n uitree.Node, path string, depth int) bool {
		a := n.Attrs()
		out[a.Class] = append(out[a.Class], a)
		return true
	})
	return out
}
