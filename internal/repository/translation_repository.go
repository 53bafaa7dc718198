package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog-service/internal/models"
	"gorm.io/gorm"
)

// TranslationRepository writes relayed translations back into the JSON
// columns of catalog rows.
type TranslationRepository struct {
	db    *gorm.DB
	cache *Cache
}

func NewTranslationRepository(db *gorm.DB, cache *Cache) *TranslationRepository {
	return &TranslationRepository{db: db, cache: cache}
}

// Apply stores resp.Text under resp.TargetLang in resp.TargetField of the
// addressed row. Only the models and columns listed in
// models.TranslationTargets are writable. Hooks and UpdatedAt are skipped so
// that applying a translation does not enqueue new ones.
func (r *TranslationRepository) Apply(ctx context.Context, resp *models.TranslationResponse) error {
	target, ok := models.TranslationTargets[resp.ModelName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTranslationModel, resp.ModelName)
	}
	allowed := false
	for _, col := range target.Columns {
		if col == resp.TargetField {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s.%s", ErrUnknownTranslationTarget, resp.ModelName, resp.TargetField)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row struct {
			Value models.Translations
		}
		res := tx.Table(target.Table).
			Select(fmt.Sprintf("%s AS value", resp.TargetField)).
			Where("id = ?", resp.InstanceID).
			Limit(1).
			Scan(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTranslationInstance
		}
		if row.Value == nil {
			row.Value = models.Translations{}
		}
		row.Value[strings.ToUpper(resp.TargetLang)] = resp.Text
		return tx.Table(target.Table).
			Where("id = ?", resp.InstanceID).
			UpdateColumn(resp.TargetField, row.Value).Error
	})
	if err != nil {
		if errors.Is(err, ErrTranslationInstance) {
			return err
		}
		return fmt.Errorf("failed to apply translation: %w", err)
	}

	switch resp.ModelName {
	case models.ModelCategory:
		r.cache.Delete(ctx, categoriesAllKey)
	case models.ModelCity:
		r.cache.Delete(ctx, cityStatsKey)
	}
	r.cache.DeletePattern(ctx, "product:*")
	return nil
}
