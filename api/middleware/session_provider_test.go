package middleware

import (
	"context"
	"testing"

	pkgerrors "github.com/angelmondragon/storedash-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestClaimsSessionProvider(t *testing.T) {
	provider := ClaimsSessionProvider{}

	sess, err := provider.CurrentSession(context.Background())
	require.NoError(t, err)
	require.Nil(t, sess, "anonymous requests have no session")

	userID := uuid.New()
	storeID := uuid.New()
	ctx := WithUserID(context.Background(), userID.String())
	ctx = context.WithValue(ctx, ctxEmail, "owner@example.com")

	sess, err = provider.CurrentSession(ctx)
	require.NoError(t, err)
	require.Equal(t, userID, sess.UserID)
	require.Equal(t, "owner@example.com", sess.Email)
	require.Nil(t, sess.StoreID)

	sess, err = provider.CurrentSession(context.WithValue(ctx, ctxSessionStoreID, storeID.String()))
	require.NoError(t, err)
	require.NotNil(t, sess.StoreID)
	require.Equal(t, storeID, *sess.StoreID)

	_, err = provider.CurrentSession(WithUserID(context.Background(), "not-a-uuid"))
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}
