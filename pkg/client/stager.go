package client

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// PendingAttachment is an uploaded file waiting to be sent with the next message.
type PendingAttachment struct {
	Name       string
	ResourceID string
}

// AttachmentStager holds pending attachments in staging order, unique by name.
type AttachmentStager struct {
	api      APIInterface
	renderer Renderer
	logger   *log.Logger

	mu      sync.Mutex
	entries []PendingAttachment
}

func NewAttachmentStager(api APIInterface, renderer Renderer) *AttachmentStager {
	if renderer == nil {
		renderer = nopRenderer{}
	}
	return &AttachmentStager{api: api, renderer: renderer}
}

func (s *AttachmentStager) SetLogger(logger *log.Logger) { s.logger = logger }

func (s *AttachmentStager) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// Stage records an uploaded resource under a local name. Staging a name that
// is already pending replaces its resource id and keeps its position.
func (s *AttachmentStager) Stage(name, resourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].Name == name {
			s.entries[i].ResourceID = resourceID
			s.renderer.Apply(AttachmentStaged{Name: name, ResourceID: resourceID, Replaced: true})
			return
		}
	}
	s.entries = append(s.entries, PendingAttachment{Name: name, ResourceID: resourceID})
	s.renderer.Apply(AttachmentStaged{Name: name, ResourceID: resourceID})
}

// Finalize submits every pending entry in staging order, one at a time, and
// returns the ids that were accepted. Each entry is removed after its submit
// whatever the outcome. Entries staged while Finalize runs are left pending.
func (s *AttachmentStager) Finalize(ctx context.Context) []string {
	s.mu.Lock()
	snapshot := append([]PendingAttachment(nil), s.entries...)
	s.mu.Unlock()

	ids := make([]string, 0, len(snapshot))
	for _, entry := range snapshot {
		if err := s.api.SubmitUpload(ctx, entry.ResourceID); err != nil {
			s.logf("Submitting attachment %s (%s) failed: %v", entry.Name, entry.ResourceID, err)
		} else {
			ids = append(ids, entry.ResourceID)
		}
		s.remove(entry)
	}
	return ids
}

// Cancel recalls the upload staged under name and removes the entry once the
// server confirms.
func (s *AttachmentStager) Cancel(ctx context.Context, name string) error {
	s.mu.Lock()
	entry, ok := s.lookup(name)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAttachment, name)
	}
	if err := s.api.RecallUpload(ctx, entry.ResourceID); err != nil {
		s.logf("Recalling attachment %s (%s) failed: %v", name, entry.ResourceID, err)
		return fmt.Errorf("recall %s: %w", name, err)
	}
	s.remove(entry)
	return nil
}

// remove deletes the entry if it still holds the same resource id.
func (s *AttachmentStager) remove(entry PendingAttachment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i] == entry {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			s.renderer.Apply(AttachmentRemoved{Name: entry.Name})
			return
		}
	}
}

func (s *AttachmentStager) lookup(name string) (PendingAttachment, bool) {
	for _, e := range s.entries {
		if e.Name == name {
			return e, true
		}
	}
	return PendingAttachment{}, false
}

// Pending returns the staged entries in order
func (s *AttachmentStager) Pending() []PendingAttachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PendingAttachment(nil), s.entries...)
}

// Len returns the number of staged entries
func (s *AttachmentStager) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
