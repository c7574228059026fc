package services

import (
	"errors"
	"testing"

	"github.com/iaejovem/backend/internal/models"
)

func TestFindUserWithRole(t *testing.T) {
	db := newTestDB(t)
	active := createUser(t, db, "ana", "Ana", models.RoleStudent, 0)
	inactive := createUser(t, db, "bia", "Bia", models.RoleStudent, 0)
	db.Model(inactive).Update("is_active", false)
	teacher := createUser(t, db, "prof", "Prof", models.RoleTeacher, 0)

	tests := []struct {
		name    string
		id      uint
		role    string
		wantErr error
	}{
		{"active student", active.ID, models.RoleStudent, nil},
		{"inactive student", inactive.ID, models.RoleStudent, nil},
		{"other role", teacher.ID, models.RoleStudent, ErrNotFound},
		{"missing", 999, models.RoleStudent, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := findUserWithRole(db, tt.id, tt.role)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("findUserWithRole() error = %v, expected %v", err, tt.wantErr)
			}
			if err == nil && user.ID != tt.id {
				t.Errorf("user = %d, expected %d", user.ID, tt.id)
			}
		})
	}
}
