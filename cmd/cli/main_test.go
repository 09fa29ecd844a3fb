package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/myrjola/mugshots/cmd/cli/mugshot"
	"github.com/myrjola/mugshots/cmd/cli/records"
	"github.com/myrjola/mugshots/internal/ai"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const charactersJSON = `{"Characters":[
  {"name":"Dora","surname":"Grey","sex":"F","image":"portraits/dora-grey.png",
   "itemsOwned":[{"itemName":"Hatpin","price":3}]},
  {"name":"Eve","surname":"Black","sex":"F","image":"portraits/eve-black.png","itemsOwned":[]},
  {"name":"Dan","surname":"","sex":"M","image":"portraits/dan.png","itemsOwned":[{"itemName":"Rope","price":0}]}
]}`

const solutionsJSON = `{"Solutions":[{"puzzleId":"p3","name":"Dora","sex":"F"}]}`

type fakeCreator struct {
	b64 string
}

func (f fakeCreator) CreateImage(context.Context, openai.ImageRequest) (openai.ImageResponse, error) {
	return openai.ImageResponse{Data: []openai.ImageResponseDataInner{{B64JSON: f.b64}}}, nil
}

func newFakeCreator(t *testing.T) mugshot.CreatorFunc {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	creator := fakeCreator{b64: base64.StdEncoding.EncodeToString(buf.Bytes())}
	return func(string) ai.ImageCreator {
		return creator
	}
}

type cli struct {
	t          *testing.T
	ctx        context.Context
	sqliteURL  string
	newCreator mugshot.CreatorFunc
}

func newCLI(t *testing.T) cli {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return cli{
		t:          t,
		ctx:        ctx,
		sqliteURL:  filepath.Join(t.TempDir(), "mugshots.sqlite"),
		newCreator: newFakeCreator(t),
	}
}

func (c cli) run(args ...string) (string, error) {
	c.t.Helper()
	root := newRootCmd(c.newCreator)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--sqlite-url", c.sqliteURL))
	err := root.ExecuteContext(c.ctx)
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestRecords(t *testing.T) {
	c := newCLI(t)
	charactersFile := writeFile(t, "characters.json", charactersJSON)
	solutionsFile := writeFile(t, "solutions.json", solutionsJSON)

	out, err := c.run("import", "characters", charactersFile)
	require.NoError(t, err)
	assert.Contains(t, out, "created 2, updated 0, invalid 1\n")
	assert.Contains(t, out, "Dan__M: surname is missing\n")
	assert.Contains(t, out, "Dan__M: item has missing or zero price\n")

	out, err = c.run("import", "characters", charactersFile)
	require.NoError(t, err)
	assert.Contains(t, out, "created 0, updated 2, invalid 1\n", "re-import updates instead of duplicating")

	out, err = c.run("import", "solutions", solutionsFile)
	require.NoError(t, err)
	assert.Contains(t, out, "created 1, updated 0, invalid 0\n")

	out, err = c.run("list")
	require.NoError(t, err)
	assert.Contains(t, out, "Dora_Grey_F")
	assert.Contains(t, out, "Eve_Black_F")
	assert.NotContains(t, out, "Dan__M")
	assert.Contains(t, out, "p3")

	out, err = c.run("validate", "characters", charactersFile)
	require.ErrorIs(t, err, records.ErrInvalidRecords)
	assert.Contains(t, out, "3 records, 1 invalid\n")

	out, err = c.run("validate", "solutions", solutionsFile)
	require.NoError(t, err)
	assert.Equal(t, "1 records, 0 invalid\n", out)

	_, err = c.run("import", "characters", writeFile(t, "broken.json", `{"Characters":[`))
	require.Error(t, err)
}

func TestValidate_images(t *testing.T) {
	c := newCLI(t)
	imagesDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(imagesDir, "portraits"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(imagesDir, "portraits", "dora-grey.png"), []byte("png"), 0o600))

	out, err := c.run("validate", "characters", writeFile(t, "characters.json", charactersJSON), "--images", imagesDir)
	require.ErrorIs(t, err, records.ErrInvalidRecords)
	assert.Contains(t, out, "3 records, 2 invalid\n")
	assert.Contains(t, out, "Eve_Black_F: image path is invalid\n")
}

func TestMugshotGen(t *testing.T) {
	c := newCLI(t)
	imagesDir := t.TempDir()
	_, err := c.run("import", "characters", writeFile(t, "characters.json", charactersJSON))
	require.NoError(t, err)

	out, err := c.run("mugshot", "gen", "Dora_Grey_F", "--images", imagesDir)
	require.NoError(t, err)
	assert.Equal(t, "Dora_Grey_F: portraits/dora-grey.png\n", out)
	written, err := os.ReadFile(filepath.Join(imagesDir, "portraits", "dora-grey.png"))
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(written))
	require.NoError(t, err)

	_, err = c.run("mugshot", "gen", "not-a-key", "--images", imagesDir)
	require.ErrorIs(t, err, mugshot.ErrInvalidKey)

	_, err = c.run("mugshot", "gen", "--images", imagesDir)
	require.Error(t, err, "a key is required without --all")

	_, err = c.run("mugshot", "gen", "--all", "--concurrency", "3", "--images", imagesDir)
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(imagesDir, "portraits"))
	require.NoError(t, err)
	// The default line-up of four and the two imported characters.
	assert.Len(t, entries, 6)
}
