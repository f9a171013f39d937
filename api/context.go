package api

import (
	"context"
	"errors"
)

type keyType string

const (
	userIDKey keyType = "userID"
	roleKey   keyType = "role"
)

// ctxWithIdentity adds the authenticated caller's id and role to the context
func ctxWithIdentity(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// ctxGetUserID retrieves the authenticated caller's id from the context
func ctxGetUserID(ctx context.Context) (string, error) {
	return ctxGetStringValue(ctx, userIDKey)
}

// ctxGetRole retrieves the authenticated caller's role from the context
func ctxGetRole(ctx context.Context) (string, error) {
	return ctxGetStringValue(ctx, roleKey)
}

// ctxGetStringValue is a helper function to retrieve string values from the context by key
func ctxGetStringValue(ctx context.Context, key keyType) (string, error) {
	ctxValue := ctx.Value(key)
	if ctxValue == nil {
		return "", errors.New("key not found in context")
	}
	valueAsString, ok := ctxValue.(string)
	if !ok {
		return "", errors.New("value is not of type `string`")
	}
	return valueAsString, nil
}
