package importjob

import (
	"context"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/importer"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/reconcile"
)

// TableReader abre el archivo subido (xlsx o csv) como tabla de texto.
type TableReader interface {
	ReadFile(ctx context.Context, path string) (importer.Table, error)
}

// Reconciler motor de reconciliación.
type Reconciler interface {
	Reconcile(ctx context.Context, req reconcile.Request, progress reconcile.ProgressFunc) (reconcile.Result, error)
}
