package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestNew_Defaults(t *testing.T) {
	s := New(epoch)
	require.Equal(t, ModalNone, s.Modal())
	require.True(t, s.SidebarOpen())
	require.Empty(t, s.Input())
	require.Len(t, s.Chats(), 4)
	require.Equal(t, epoch.Add(-30*time.Minute), s.Chats()[0].Timestamp)
}

func TestModal_Transitions(t *testing.T) {
	s := New(epoch)

	require.NoError(t, s.OpenUploadModal())
	require.Equal(t, ModalUpload, s.Modal())

	// Reopening is ignored, not an error.
	require.NoError(t, s.OpenUploadModal())
	require.Equal(t, ModalUpload, s.Modal())

	// Only one modal at a time: generate replaces upload.
	require.NoError(t, s.OpenGenerateModal())
	require.Equal(t, ModalGenerate, s.Modal())

	require.NoError(t, s.CloseModal())
	require.Equal(t, ModalNone, s.Modal())

	require.NoError(t, s.CloseModal())
	require.Equal(t, ModalNone, s.Modal())
}

func TestInputAndSidebar(t *testing.T) {
	s := New(epoch)
	s.SetInput("draft")
	require.Equal(t, "draft", s.Input())
	s.ClearInput()
	require.Empty(t, s.Input())

	require.False(t, s.ToggleSidebar())
	require.False(t, s.SidebarOpen())
	require.True(t, s.ToggleSidebar())
}

func TestCloseIf_OnlyClosesMatchingModal(t *testing.T) {
	s := New(epoch)
	require.NoError(t, s.OpenUploadModal())

	require.NoError(t, s.CloseIf(ModalGenerate))
	require.Equal(t, ModalUpload, s.Modal())

	require.NoError(t, s.CloseIf(ModalUpload))
	require.Equal(t, ModalNone, s.Modal())
}

func TestOnModalChange_ReportsActualChanges(t *testing.T) {
	s := New(epoch)
	var changes [][2]Modal
	s.OnModalChange(func(from, to Modal) { changes = append(changes, [2]Modal{from, to}) })

	require.NoError(t, s.OpenGenerateModal())
	require.NoError(t, s.OpenGenerateModal()) // ignored
	require.NoError(t, s.OpenUploadModal())
	require.NoError(t, s.CloseIf(ModalGenerate))
	require.NoError(t, s.CloseModal())
	require.NoError(t, s.CloseModal()) // ignored

	require.Equal(t, [][2]Modal{
		{ModalNone, ModalGenerate},
		{ModalGenerate, ModalUpload},
		{ModalUpload, ModalNone},
	}, changes)
}
