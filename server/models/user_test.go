package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserHashesPassword(t *testing.T) {
	InitializeTestDb()

	user := createTestUser(t, "ana@example.com")

	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.True(t, user.Authenticate("hunter22"))
	assert.False(t, user.Authenticate("wrong"))
}

func TestDeactivateFreesEmailForReuse(t *testing.T) {
	InitializeTestDb()

	user := createTestUser(t, "ana@example.com")
	require.Nil(t, user.Deactivate())

	_, err := FindActiveUserByEmail("ana@example.com")
	assert.NotNil(t, err, "a disabled account should not resolve as active")

	exists, err := ActiveEmailExists("ana@example.com")
	require.Nil(t, err)
	assert.False(t, exists)

	// The stored email is untouched, only the flags change
	stored, err := FindUserBy("id", user.ID)
	require.Nil(t, err)
	assert.Equal(t, "ana@example.com", stored.Email)
	assert.True(t, stored.Disabled)
	assert.NotNil(t, stored.DisabledAt)

	// And a fresh account can claim the address
	createTestUser(t, "ana@example.com")

	active, err := FindActiveUserByEmail("ana@example.com")
	require.Nil(t, err)
	assert.False(t, active.Disabled)
}

func TestUpdatePassword(t *testing.T) {
	InitializeTestDb()

	user := createTestUser(t, "ana@example.com")
	require.Nil(t, user.UpdatePassword("new-password"))

	stored, err := FindActiveUserByEmail("ana@example.com")
	require.Nil(t, err)
	assert.False(t, stored.Authenticate("hunter22"))
	assert.True(t, stored.Authenticate("new-password"))
}
