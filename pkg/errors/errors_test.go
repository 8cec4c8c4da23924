package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeIntegrity, status: http.StatusConflict, publicMsg: "resource still referenced", detailsOK: true},
		{code: CodeTenantNotFound, status: http.StatusInternalServerError, publicMsg: "internal server error"},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsAndIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeIntegrity, "Category is not empty"))
	if got := As(err); got == nil || got.Code() != CodeIntegrity {
		t.Fatalf("As failed to return typed error")
	}
	if !Is(err, CodeIntegrity) {
		t.Fatalf("expected Is to match integrity code")
	}
	if Is(err, CodeConflict) {
		t.Fatalf("did not expect conflict code to match")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", ConstraintName: "fk_products_category", TableName: "products"}
	dump := Dump(Wrap(CodeIntegrity, pgErr, "delete category"))
	if dump.Code != CodeIntegrity {
		t.Fatalf("expected integrity code in dump, got %s", dump.Code)
	}
	if dump.PGCode != "23503" || dump.PGConstraint != "fk_products_category" || dump.PGTable != "products" {
		t.Fatalf("unexpected pgx dump %+v", dump)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected chain of 2, got %v", dump.Chain)
	}

	pqErr := &pq.Error{Code: "23505", Constraint: "idx_categories_store_name"}
	dump = Dump(pqErr)
	if dump.PGCode != "23505" || dump.PGConstraint != "idx_categories_store_name" {
		t.Fatalf("unexpected pq dump %+v", dump)
	}
}

func TestDumpExtractsSQLiteCode(t *testing.T) {
	liteErr := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}
	dump := Dump(fmt.Errorf("delete product: %w", liteErr))
	if dump.Driver != "sqlite3" {
		t.Fatalf("expected sqlite3 driver, got %q", dump.Driver)
	}
	if dump.SQLiteCode == "" {
		t.Fatalf("expected sqlite extended code in dump")
	}
	if dump.PGCode != "" {
		t.Fatalf("sqlite errors must not populate pg fields: %+v", dump)
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("dial tcp: refused"), "redis unavailable")
	want := "DEPENDENCY_ERROR: redis unavailable: dial tcp: refused"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
	if CodeDependency.HTTPStatus() != http.StatusServiceUnavailable {
		t.Fatalf("unexpected status for dependency code")
	}
	if got := Newf(CodeNotFound, "%s not found", "product").Message(); got != "product not found" {
		t.Fatalf("unexpected Newf message %q", got)
	}
}
