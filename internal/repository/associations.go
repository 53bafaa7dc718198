package repository

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// replaceJoin rewrites the rows of a many-to-many join table for one owner.
// Duplicate IDs are written once.
func replaceJoin(tx *gorm.DB, table, ownerColumn string, ownerID uuid.UUID, otherColumn string, ids []uuid.UUID) error {
	if err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, ownerColumn), ownerID).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	rows := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, map[string]interface{}{ownerColumn: ownerID, otherColumn: id})
	}
	return tx.Table(table).Create(rows).Error
}
