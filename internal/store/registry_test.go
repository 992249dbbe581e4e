package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ConnAndReplicaFallback(t *testing.T) {
	primary := setupTestDB(t)
	AddConnection("regtest", TargetDefault, primary)

	got, err := Conn("regtest", TargetDefault)
	require.NoError(t, err)
	assert.Same(t, primary, got)

	// No replica registered: replica reads fall back to the primary.
	got, err = Conn("regtest", TargetReplica)
	require.NoError(t, err)
	assert.Same(t, primary, got)

	replica := setupTestDB(t)
	AddConnection("regtest", TargetReplica, replica)

	got, err = Conn("regtest", TargetReplica)
	require.NoError(t, err)
	assert.Same(t, replica, got)

	_, err = Conn("unregistered", TargetDefault)
	assert.Error(t, err)
}

func TestRegistry_ActiveSwitching(t *testing.T) {
	primary := setupTestDB(t)
	AddConnection("site_a", TargetDefault, primary)

	prev := SetActive("site_a")
	t.Cleanup(func() { SetActive(prev) })

	assert.Equal(t, "site_a", ActiveKey())

	db, err := Active()
	require.NoError(t, err)
	assert.Same(t, primary, db)

	read, err := ReadConn()
	require.NoError(t, err)
	assert.Same(t, primary, read)
}

func TestRegistry_ReadConnPrefersReplica(t *testing.T) {
	primary := setupTestDB(t)
	replica := setupTestDB(t)
	AddConnection("site_b", TargetDefault, primary)
	AddConnection("site_b", TargetReplica, replica)

	prev := SetActive("site_b")
	t.Cleanup(func() { SetActive(prev) })

	read, err := ReadConn()
	require.NoError(t, err)
	assert.Same(t, replica, read)

	// IgnoreReplica pins reads to the primary for the rest of the process.
	IgnoreReplica()
	read, err = ReadConn()
	require.NoError(t, err)
	assert.Same(t, primary, read)
}

func TestRegistry_CloseDBDeregisters(t *testing.T) {
	db := setupTestDB(t)
	other := setupTestDB(t)
	AddConnection("site_c", TargetDefault, db)
	AddConnection("site_d", TargetDefault, other)

	require.NoError(t, CloseDB(db))

	// Every slot holding the closed connection is forgotten.
	_, err := Conn("site_c", TargetDefault)
	assert.Error(t, err)

	// Slots holding other connections are untouched.
	got, err := Conn("site_d", TargetDefault)
	require.NoError(t, err)
	assert.Same(t, other, got)
}
