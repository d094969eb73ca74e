package service

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"anoa.com/studentroster/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"
)

const studentsIndex = "students"

// StudentIndex keeps the full-text index of roster entries in sync and
// answers owner-scoped searches with ranked ids.
type StudentIndex interface {
	IndexStudent(student *entity.Student) error
	DeleteStudent(id string) error
	SearchStudents(ownerID uuid.UUID, query string, limit int64) ([]uuid.UUID, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliSearchService(client meilisearch.ServiceManager) StudentIndex {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterableAttrs := []string{"user_id", "class"}
	filterableInterface := make([]any, len(filterableAttrs))
	for i, v := range filterableAttrs {
		filterableInterface[i] = v
	}
	_, err := s.client.Index(studentsIndex).UpdateFilterableAttributes(&filterableInterface)
	if err != nil {
		logrus.WithError(err).Warn("failed to update students filterable attributes")
	}

	sortableAttrs := []string{"created_at", "name", "roll_number"}
	_, err = s.client.Index(studentsIndex).UpdateSortableAttributes(&sortableAttrs)
	if err != nil {
		logrus.WithError(err).Warn("failed to update students sortable attributes")
	}

	logrus.Info("Meilisearch indexes initialized")
}

type meiliStudentDoc struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
	Class      string `json:"class"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	CreatedAt  int64  `json:"created_at"`
}

// cleanText strips markup so that pasted HTML does not pollute matches.
func (s *meiliSearchService) cleanText(content string) string {
	content = strings.ReplaceAll(content, "<br>", " ")
	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) buildDoc(student *entity.Student) meiliStudentDoc {
	return meiliStudentDoc{
		ID:         student.ID.String(),
		UserID:     student.UserID.String(),
		Name:       s.cleanText(student.Name),
		RollNumber: s.cleanText(student.RollNumber),
		Class:      student.Class,
		Email:      getStringOrEmpty(student.Email),
		Address:    s.cleanText(getStringOrEmpty(student.Address)),
		CreatedAt:  student.CreatedAt.Unix(),
	}
}

func (s *meiliSearchService) IndexStudent(student *entity.Student) error {
	doc := s.buildDoc(student)

	task, err := s.client.Index(studentsIndex).AddDocuments([]meiliStudentDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"student_id": doc.ID, "task_uid": task.TaskUID}).Debug("indexed student")
	return nil
}

func (s *meiliSearchService) DeleteStudent(id string) error {
	_, err := s.client.Index(studentsIndex).DeleteDocument(id)
	return err
}

func (s *meiliSearchService) SearchStudents(ownerID uuid.UUID, query string, limit int64) ([]uuid.UUID, error) {
	raw, err := s.client.Index(studentsIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Filter:               ownerFilter(ownerID),
		Limit:                limit,
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return decodeHitIDs(*raw)
}

func ownerFilter(ownerID uuid.UUID) string {
	return fmt.Sprintf("user_id = %q", ownerID.String())
}

func decodeHitIDs(raw []byte) ([]uuid.UUID, error) {
	var resp struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			logrus.WithField("id", hit.ID).Warn("skipping search hit with invalid id")
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getStringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string {
	return &s
}
