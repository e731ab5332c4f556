package persistence

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
)

// translateWriteError maps a GORM write failure onto the pipeline error
// taxonomy. Requires TranslateError on the gorm.Config so driver-specific
// constraint errors arrive as gorm sentinels.
func translateWriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", pipeline.ErrDuplicateKey, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", pipeline.ErrConstraintViolation, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %v", pipeline.ErrConstraintViolation, err)
	default:
		return err
	}
}
