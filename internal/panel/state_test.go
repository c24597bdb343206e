package panel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	driveC = DriveItem{Kind: DriveFixed, Path: `C:\`, DisplayName: "Local Disk"}
	driveD = DriveItem{Kind: DriveRemovable, Path: `D:\`, DisplayName: "USB Drive"}
	driveE = DriveItem{Kind: DriveNetwork, Path: `E:\`, DisplayName: "Share"}
)

func TestNewState_Empty(t *testing.T) {
	s := NewState(Remote)

	assert.Equal(t, Remote, s.Kind())
	assert.Equal(t, StatusIdle, s.Status())
	assert.False(t, s.Pending())
	snap := s.Snapshot()
	assert.Empty(t, snap.Drives)
	assert.Empty(t, snap.Entries)
}

func TestNewState_InvalidKindPanics(t *testing.T) {
	assert.Panics(t, func() { NewState(Kind(7)) })
}

func TestDriveItems_AppendInCallOrder(t *testing.T) {
	local := NewState(Local)
	remote := NewState(Remote)
	require.True(t, remote.BeginDriveRequest())
	require.True(t, remote.AddDriveItem(driveE))

	require.True(t, local.BeginDriveRequest())
	for _, d := range []DriveItem{driveC, driveD, driveE} {
		require.True(t, local.AddDriveItem(d))
	}

	assert.Equal(t, []DriveItem{driveC, driveD, driveE}, local.Snapshot().Drives)
	// The other panel is untouched
	assert.Equal(t, []DriveItem{driveE}, remote.Snapshot().Drives)
}

func TestBeginDriveRequest_ClearsPreviousListing(t *testing.T) {
	s := NewState(Local)
	require.True(t, s.BeginDriveRequest())
	s.AddDriveItem(driveC)
	require.True(t, s.CompleteRequest())

	require.True(t, s.BeginDriveRequest())
	s.AddDriveItem(driveD)

	assert.Equal(t, []DriveItem{driveD}, s.Snapshot().Drives)
}

func TestBeginDriveRequest_CoalescesWhilePending(t *testing.T) {
	s := NewState(Local)
	require.True(t, s.BeginDriveRequest())
	seq := s.Seq()
	s.AddDriveItem(driveC)

	assert.False(t, s.BeginDriveRequest(), "second request must coalesce")
	assert.Equal(t, seq, s.Seq())
	s.AddDriveItem(driveD)

	assert.Equal(t, []DriveItem{driveC, driveD}, s.Snapshot().Drives)
	assert.False(t, s.BeginDirectoryRequest("/tmp"), "directory request also waits for the pending one")
}

func TestDirectoryRequest_RecordsPathAndReplacesEntries(t *testing.T) {
	s := NewState(Remote)
	require.True(t, s.BeginDirectoryRequest("/home"))
	s.AddDirectoryItem(DirectoryItem{Kind: EntryDirectory, Name: "alice"})
	s.CompleteRequest()

	require.True(t, s.BeginDirectoryRequest("/var"))
	s.AddDirectoryItem(DirectoryItem{Kind: EntryFile, Name: "log", Size: 12})

	snap := s.Snapshot()
	assert.Equal(t, "/var", snap.Path)
	assert.Equal(t, ListingDirectory, snap.Listing)
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, "log", snap.Entries[0].Name)
}

func TestAddItem_StaleItemsIgnored(t *testing.T) {
	s := NewState(Local)

	assert.False(t, s.AddDriveItem(driveC), "idle panel accepts nothing")

	require.True(t, s.BeginDriveRequest())
	assert.False(t, s.AddDirectoryItem(DirectoryItem{Name: "x"}), "entries while awaiting drives")
	require.True(t, s.CompleteRequest())
	assert.False(t, s.AddDriveItem(driveD), "late item after completion")

	assert.Empty(t, s.Snapshot().Entries)
	assert.Empty(t, s.Snapshot().Drives)
}

func TestFailRequest_KeepsItemsAndRecordsError(t *testing.T) {
	s := NewState(Remote)
	require.True(t, s.BeginDriveRequest())
	s.AddDriveItem(driveC)

	boom := errors.New("peer went away")
	require.True(t, s.FailRequest(boom))

	snap := s.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.False(t, snap.Pending)
	assert.ErrorIs(t, snap.Err, boom)
	assert.Equal(t, []DriveItem{driveC}, snap.Drives)

	assert.False(t, s.FailRequest(boom), "nothing pending")
	require.True(t, s.BeginDriveRequest())
	assert.NoError(t, s.Snapshot().Err, "a new request clears the error")
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := NewState(Local)
	s.BeginDriveRequest()
	s.AddDriveItem(driveC)
	snap := s.Snapshot()

	snap.Drives[0].DisplayName = "mutated"
	s.AddDriveItem(driveD)

	assert.Equal(t, "Local Disk", s.Snapshot().Drives[0].DisplayName)
	assert.Len(t, snap.Drives, 1)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "local", Local.String())
	assert.Equal(t, "remote", Remote.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
	assert.False(t, Kind(-1).Valid())
}

func TestTicket_OnlyThePendingRequestIsCurrent(t *testing.T) {
	s := NewState(Local)
	require.True(t, s.BeginDirectoryRequest("/a"))
	first := s.Ticket()
	assert.Equal(t, Ticket{Kind: Local, Seq: 1}, first)
	assert.True(t, s.Current(first))

	require.True(t, s.FailRequest(errors.New("timed out")))
	assert.False(t, s.Current(first), "a finished request is not current")

	require.True(t, s.BeginDirectoryRequest("/b"))
	second := s.Ticket()
	assert.False(t, s.Current(first))
	assert.True(t, s.Current(second))
	assert.False(t, s.Current(Ticket{Kind: Remote, Seq: second.Seq}))
	assert.Equal(t, "local#2", second.String())
}
