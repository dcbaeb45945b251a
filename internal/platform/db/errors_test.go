package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsNoRows(t *testing.T) {
	if !IsNoRows(fmt.Errorf("get appointment: %w", pgx.ErrNoRows)) {
		t.Error("expected wrapped ErrNoRows to match")
	}
	if IsNoRows(errors.New("other")) {
		t.Error("unexpected match")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "appointments_doctor_date_slot_key"}
	wrapped := fmt.Errorf("insert appointment: %w", pgErr)

	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"any constraint", wrapped, "", true},
		{"matching constraint", wrapped, "appointments_doctor_date_slot_key", true},
		{"other constraint", wrapped, "doctors_user_id_key", false},
		{"other code", &pgconn.PgError{Code: "23503"}, "", false},
		{"plain error", errors.New("boom"), "", false},
		{"nil", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsCheckViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23514", ConstraintName: "appointments_consultation_fee_check"}
	if !IsCheckViolation(err, "appointments_consultation_fee_check") {
		t.Error("expected check violation")
	}
	if IsCheckViolation(err, "appointments_status_check") {
		t.Error("unexpected match on other constraint")
	}
}
