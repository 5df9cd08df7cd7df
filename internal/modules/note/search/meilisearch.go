// Package search keeps the Meilisearch "notes" index in step with the database and queries it
// with a per-user visibility filter.
package search

import (
	"encoding/json"
	"fmt"
	"html"
	"log"
	"strings"

	"anoa.com/classhub/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const notesIndex = "notes"

type Indexer interface {
	IndexNote(note *entity.Note) error
	DeleteNote(id uuid.UUID) error
	Search(userID uuid.UUID, query string, limit int) ([]uuid.UUID, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliSearchService(client meilisearch.ServiceManager) Indexer {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndex()
	return s
}

func (s *meiliSearchService) initIndex() {
	filterable := []any{"is_public", "user_id"}
	if _, err := s.client.Index(notesIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("Failed to update notes filterable attributes: %v", err)
	}

	sortable := []string{"updated_at"}
	if _, err := s.client.Index(notesIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Printf("Failed to update notes sortable attributes: %v", err)
	}
}

type noteDoc struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	IsPublic  bool     `json:"is_public"`
	UpdatedAt int64    `json:"updated_at"`
}

// CleanContent strips markup so that only the visible text is indexed.
func CleanContent(sanitizer *bluemonday.Policy, content string) string {
	for _, tag := range []string{"</p>", "<br>", "<br/>", "</div>"} {
		content = strings.ReplaceAll(content, tag, " ")
	}
	text := html.UnescapeString(sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(text), " ")
}

// VisibilityFilter limits hits to public notes and the user's own.
func VisibilityFilter(userID uuid.UUID) string {
	return fmt.Sprintf("is_public = true OR user_id = %q", userID.String())
}

func (s *meiliSearchService) IndexNote(note *entity.Note) error {
	tags := make([]string, 0, len(note.Tags))
	for _, t := range note.Tags {
		tags = append(tags, t.Name)
	}

	doc := noteDoc{
		ID:        note.ID.String(),
		UserID:    note.UserID.String(),
		Title:     note.Title,
		Content:   CleanContent(s.sanitizer, note.Content),
		Tags:      tags,
		IsPublic:  note.IsPublic,
		UpdatedAt: note.UpdatedAt.Unix(),
	}

	primaryKey := "id"
	if _, err := s.client.Index(notesIndex).AddDocuments([]noteDoc{doc}, &primaryKey); err != nil {
		return err
	}
	return nil
}

func (s *meiliSearchService) DeleteNote(id uuid.UUID) error {
	_, err := s.client.Index(notesIndex).DeleteDocument(id.String())
	return err
}

func (s *meiliSearchService) Search(userID uuid.UUID, query string, limit int) ([]uuid.UUID, error) {
	resp, err := s.client.Index(notesIndex).Search(query, &meilisearch.SearchRequest{
		Filter:               VisibilityFilter(userID),
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		raw, ok := hit["id"]
		if !ok {
			continue
		}
		var idStr string
		if err := json.Unmarshal(raw, &idStr); err != nil {
			continue
		}
		if id, err := uuid.Parse(idStr); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
