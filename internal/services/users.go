package services

import (
	"github.com/iaejovem/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// findUserWithRole loads a user holding role, active or not. A missing user and a
// user with another role are both reported as ErrNotFound.
func findUserWithRole(db *gorm.DB, id uint, role string) (*models.User, error) {
	var user models.User
	err := db.Where("id = ? AND role = ?", id, role).First(&user).Error
	if err != nil {
		return nil, translateNotFound(err, role, id)
	}
	return &user, nil
}

func findStudent(db *gorm.DB, id uint) (*models.User, error) {
	return findUserWithRole(db, id, models.RoleStudent)
}

// lockUser loads a user row FOR UPDATE inside tx. SQLite ignores the
// locking clause; its single writer already serializes the transaction.
func lockUser(tx *gorm.DB, id uint, role string) (*models.User, error) {
	query := tx.Clauses(clause.Locking{Strength: "UPDATE"})
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var user models.User
	if err := query.First(&user, id).Error; err != nil {
		what := role
		if what == "" {
			what = "user"
		}
		return nil, translateNotFound(err, what, id)
	}
	return &user, nil
}
