package middleware

import (
	"context"

	"github.com/angelmondragon/storedash-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/google/uuid"
)

// ClaimsSessionProvider exposes the claims verified by Auth as the session of
// the current request.
type ClaimsSessionProvider struct{}

func (ClaimsSessionProvider) CurrentSession(ctx context.Context) (*auth.Session, error) {
	rawUser := UserIDFromContext(ctx)
	if rawUser == "" {
		return nil, nil
	}
	userID, err := uuid.Parse(rawUser)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}

	sess := &auth.Session{UserID: userID, Email: EmailFromContext(ctx)}
	if rawStore := stringFromContext(ctx, ctxSessionStoreID); rawStore != "" {
		storeID, err := uuid.Parse(rawStore)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid store id")
		}
		sess.StoreID = &storeID
	}
	return sess, nil
}
