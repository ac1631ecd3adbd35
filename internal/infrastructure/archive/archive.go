// Package archive cópias dos XMLs autorizados e dos eventos registrados, em
// disco local ou num bucket S3.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/pkg/config"
)

const (
	DriverFS   = "fs"
	DriverS3   = "s3"
	DriverNone = "none"
)

// New escolhe o destino pela configuração. Para "none" devolve (nil, nil) e os
// casos de uso simplesmente não arquivam.
func New(ctx context.Context, cfg config.ArchiveConfig) (manifest.XMLArchive, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverFS, "":
		return NewFileArchive(cfg.Dir), nil
	case DriverS3:
		return NewS3Archive(ctx, cfg)
	case DriverNone:
		return nil, nil
	}
	return nil, fmt.Errorf("archive: driver %q desconhecido (fs, s3 ou none)", cfg.Driver)
}

// ObjectKey caminho relativo do arquivo: <cnpj>/<aaaamm>/<chave>-<tipo>.xml.
func ObjectKey(e manifest.ArchiveEntry) string {
	return path.Join(
		e.CompanyCNPJ,
		e.IssuedAt.Format("200601"),
		fmt.Sprintf("%s-%s.xml", e.AccessKey, e.Kind),
	)
}

func validate(e manifest.ArchiveEntry) error {
	if e.CompanyCNPJ == "" || e.AccessKey == "" || e.Kind == "" {
		return fmt.Errorf("archive: entrada incompleta (cnpj=%q chave=%q tipo=%q)", e.CompanyCNPJ, e.AccessKey, e.Kind)
	}
	if len(e.Content) == 0 {
		return fmt.Errorf("archive: XML vazio para %s", e.AccessKey)
	}
	return nil
}
