package storage

import (
	"testing"

	"github.com/agglayer/agglayer-go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptStoreLifecycle(t *testing.T) {
	store, err := NewMemoryReceiptStore()
	require.NoError(t, err)
	defer store.Close()

	hash := common.HexToHash("0xaa")

	_, found, err := store.Get(hash)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.MarkPending(hash, 3))
	rec, found, err := store.Get(hash)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, uint32(3), rec.RollupID)
	assert.Nil(t, rec.SettleTxHash)
	assert.False(t, rec.UpdatedAt.IsZero())

	settleHash := common.HexToHash("0xbb")
	require.NoError(t, store.MarkMined(hash, 3, settleHash))
	rec, found, err = store.Get(hash)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, StatusMined, rec.Status)
	require.NotNil(t, rec.SettleTxHash)
	assert.Equal(t, settleHash, *rec.SettleTxHash)
}

func TestReceiptStoreFailedDetail(t *testing.T) {
	store, err := NewMemoryReceiptStore()
	require.NoError(t, err)
	defer store.Close()

	hash := common.HexToHash("0xcc")
	require.NoError(t, store.MarkFailed(hash, 7, "settlement reverted"))

	rec, found, err := store.Get(hash)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, "settlement reverted", rec.Detail)
}

func TestReceiptStoreList(t *testing.T) {
	store, err := NewMemoryReceiptStore()
	require.NoError(t, err)
	defer store.Close()

	hashes := []common.Hash{
		common.HexToHash("0x01"),
		common.HexToHash("0x02"),
		common.HexToHash("0x03"),
	}
	for i, h := range hashes {
		require.NoError(t, store.MarkPending(h, uint32(i)))
	}

	records, err := store.List()
	require.NoError(t, err)
	assert.Len(t, records, len(hashes))
}

func TestReceiptStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	store, err := NewReceiptStore(dir + "/receipts")
	require.NoError(t, err)

	hash := common.HexToHash("0xdd")
	require.NoError(t, store.MarkPending(hash, 1))
	require.NoError(t, store.Close())

	reopened, err := NewReceiptStore(dir + "/receipts")
	require.NoError(t, err)
	defer reopened.Close()

	rec, found, err := reopened.Get(hash)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, StatusPending, rec.Status)
}
