package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/pkg/config"
)

func entry() manifest.ArchiveEntry {
	return manifest.ArchiveEntry{
		CompanyCNPJ: "11222333000181",
		AccessKey:   "52260311222333000181580010000000011000000010",
		Kind:        manifest.ArchiveAuthorized,
		IssuedAt:    time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
		Content:     []byte("<mdfeProc/>"),
	}
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t,
		"11222333000181/202603/52260311222333000181580010000000011000000010-procMDFe.xml",
		ObjectKey(entry()))
}

// ─── Disco ───────────────────────────────────────────────────────────────────

func TestFileArchive_Save(t *testing.T) {
	root := t.TempDir()
	a := NewFileArchive(root)

	require.NoError(t, a.Save(context.Background(), entry()))

	got, err := os.ReadFile(filepath.Join(root, "11222333000181", "202603",
		"52260311222333000181580010000000011000000010-procMDFe.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<mdfeProc/>", string(got))

	// sobrescrever o mesmo tipo não deixa temporários para trás
	e := entry()
	e.Content = []byte("<mdfeProc v='2'/>")
	require.NoError(t, a.Save(context.Background(), e))
	files, err := os.ReadDir(filepath.Join(root, "11222333000181", "202603"))
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFileArchive_EntradaIncompleta(t *testing.T) {
	e := entry()
	e.Content = nil
	assert.Error(t, NewFileArchive(t.TempDir()).Save(context.Background(), e))

	e = entry()
	e.AccessKey = ""
	assert.Error(t, NewFileArchive(t.TempDir()).Save(context.Background(), e))
}

// ─── S3 ──────────────────────────────────────────────────────────────────────

type fakeS3 struct {
	in   *s3.PutObjectInput
	body string
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Archive_Save(t *testing.T) {
	fake := &fakeS3{}
	a := newS3Archive(fake, "xml-mdfe")

	require.NoError(t, a.Save(context.Background(), entry()))
	assert.Equal(t, "xml-mdfe", aws.ToString(fake.in.Bucket))
	assert.Equal(t, ObjectKey(entry()), aws.ToString(fake.in.Key))
	assert.Equal(t, "application/xml", aws.ToString(fake.in.ContentType))
	assert.Equal(t, "<mdfeProc/>", fake.body)
}

func TestS3Archive_ErroDoBucket(t *testing.T) {
	a := newS3Archive(&fakeS3{err: errors.New("AccessDenied")}, "xml-mdfe")
	err := a.Save(context.Background(), entry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
}

// ─── Seleção ─────────────────────────────────────────────────────────────────

func TestNew(t *testing.T) {
	a, err := New(context.Background(), config.ArchiveConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = New(context.Background(), config.ArchiveConfig{Driver: "fs", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileArchive{}, a)

	_, err = New(context.Background(), config.ArchiveConfig{Driver: "s3"})
	assert.Error(t, err, "bucket obrigatório")

	_, err = New(context.Background(), config.ArchiveConfig{Driver: "ftp"})
	assert.Error(t, err)
}
