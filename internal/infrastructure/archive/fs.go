package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
)

// FileArchive grava em disco sob root.
type FileArchive struct {
	root string
}

var _ manifest.XMLArchive = (*FileArchive)(nil)

func NewFileArchive(root string) *FileArchive {
	return &FileArchive{root: root}
}

// Save escreve num temporário e renomeia: um leitor nunca vê XML pela metade.
func (a *FileArchive) Save(_ context.Context, e manifest.ArchiveEntry) error {
	if err := validate(e); err != nil {
		return err
	}
	dest := filepath.Join(a.root, filepath.FromSlash(ObjectKey(e)))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("archive: criar diretório: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*.xml")
	if err != nil {
		return fmt.Errorf("archive: criar temporário: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(e.Content); err != nil {
		tmp.Close()
		return fmt.Errorf("archive: gravar %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("archive: fechar %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("archive: renomear para %s: %w", dest, err)
	}
	return nil
}
