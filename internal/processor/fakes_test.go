package processor

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"cv-agent-go/internal/enrichment"
	"cv-agent-go/internal/storage"
	"cv-agent-go/internal/storage/models"
	"cv-agent-go/internal/types"

	"github.com/rs/zerolog"
)

type fakeExtractor struct {
	texts map[string]string
	links []string
}

func (f fakeExtractor) Extract(_ context.Context, filename string, _ []byte) (string, []string) {
	return f.texts[filename], f.links
}

type fakeStore struct {
	mu        sync.Mutex
	cvs       map[string]models.CVRecord
	jobs      []models.JobDescriptionRecord
	summaries []models.MatchSummaryRecord
	events    []models.OutboxMessage
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{cvs: make(map[string]models.CVRecord)}
}

func (f *fakeStore) CreateCV(_ context.Context, rec *models.CVRecord, event *models.OutboxMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.cvs[rec.ID] = *rec
	if event != nil {
		f.events = append(f.events, *event)
	}
	return nil
}

func (f *fakeStore) GetCV(_ context.Context, ownerID, id string) (*models.CVRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.cvs[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, storage.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeStore) ListCVs(_ context.Context, ownerID string) ([]models.CVRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CVRecord
	for _, rec := range f.cvs {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) DeleteCV(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.cvs[id]
	if !ok || rec.OwnerID != ownerID {
		return storage.ErrNotFound
	}
	delete(f.cvs, id)
	return nil
}

func (f *fakeStore) CVExistsByContentMD5(_ context.Context, ownerID, md5Hex string) (bool, error) {
	return f.any(func(r models.CVRecord) bool { return r.OwnerID == ownerID && r.ContentMD5 == md5Hex }), nil
}

func (f *fakeStore) CVExistsByFilename(_ context.Context, ownerID, filename string) (bool, error) {
	return f.any(func(r models.CVRecord) bool { return r.OwnerID == ownerID && r.Filename == filename }), nil
}

func (f *fakeStore) any(pred func(models.CVRecord) bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.cvs {
		if pred(r) {
			return true
		}
	}
	return false
}

func (f *fakeStore) SaveJobDescription(_ context.Context, rec *models.JobDescriptionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, *rec)
	return nil
}

func (f *fakeStore) SaveMatchSummary(_ context.Context, rec *models.MatchSummaryRecord, event *models.OutboxMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, *rec)
	if event != nil {
		f.events = append(f.events, *event)
	}
	return nil
}

type fakeIndex struct {
	docs   map[string]string
	owners map[string]string
	addErr error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: make(map[string]string), owners: make(map[string]string)}
}

func (f *fakeIndex) Add(_ context.Context, ownerID, text, id string) (string, error) {
	if f.addErr != nil {
		return "", f.addErr
	}
	f.docs[id] = text
	f.owners[id] = ownerID
	return id, nil
}

func (f *fakeIndex) Delete(_ context.Context, id string) error {
	delete(f.docs, id)
	delete(f.owners, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, ownerID, query string, k int) ([]types.IndexedDocument, error) {
	var out []types.IndexedDocument
	for id, text := range f.docs {
		if ownerID != "" && f.owners[id] != ownerID {
			continue
		}
		if strings.Contains(strings.ToLower(text), strings.ToLower(query)) {
			out = append(out, types.IndexedDocument{ID: id, Text: text})
		}
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

type fakeDedup struct {
	sets map[string]map[string]bool
	err  error
}

func newFakeDedup() *fakeDedup {
	return &fakeDedup{sets: make(map[string]map[string]bool)}
}

func (f *fakeDedup) CheckAndAddContentMD5(_ context.Context, ownerID, md5Hex string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.sets[ownerID] == nil {
		f.sets[ownerID] = make(map[string]bool)
	}
	if f.sets[ownerID][md5Hex] {
		return true, nil
	}
	f.sets[ownerID][md5Hex] = true
	return false, nil
}

func (f *fakeDedup) RemoveContentMD5(_ context.Context, ownerID, md5Hex string) error {
	delete(f.sets[ownerID], md5Hex)
	return nil
}

func (f *fakeDedup) has(ownerID, md5Hex string) bool {
	return f.sets[ownerID][md5Hex]
}

type fakeObjects struct {
	objects map[string][]byte
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (f *fakeObjects) PutCVFile(_ context.Context, ownerID, cvID, filename string, data []byte) (string, error) {
	key := storage.CVObjectKey(ownerID, cvID, filename)
	f.objects[key] = data
	return key, nil
}

func (f *fakeObjects) GetCVFile(_ context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object missing: " + key)
	}
	return data, nil
}

func (f *fakeObjects) DeleteCVFile(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

type fakeCache struct {
	data map[string][]byte
	sets int
}

func (f *fakeCache) GetJobAnalysis(_ context.Context, md5Hex string) ([]byte, bool, error) {
	d, ok := f.data[md5Hex]
	return d, ok, nil
}

func (f *fakeCache) SetJobAnalysis(_ context.Context, md5Hex string, data []byte) error {
	if f.data == nil {
		f.data = make(map[string][]byte)
	}
	f.data[md5Hex] = data
	f.sets++
	return nil
}

// scriptedModel 按提示词开头路由到固定回复，未知任务返回错误
func scriptedModel(replies map[string]string) *enrichment.MockChatModel {
	return &enrichment.MockChatModel{
		Responder: func(_, user string) (string, error) {
			for prefix, reply := range replies {
				if strings.HasPrefix(strings.TrimSpace(user), prefix) {
					return reply, nil
				}
			}
			return "", errors.New("no scripted reply")
		},
	}
}

var defaultReplies = map[string]string{
	"Analyze the following job description":         `{"industry": "Technology", "domain_keywords": ["cloud"]}`,
	"Extract skills from the CV":                    `{"technical_skills": ["Python", "SQL"], "soft_skills": ["Leadership"]}`,
	"Extract requirements from the job description": `{"technical_skills": ["python", "java"], "soft_skills": ["leadership"], "experience": [], "education": [], "industry_knowledge": []}`,
	"Identify semantic matches":                     `[{"cv_skill": "sql", "job_skill": "java"}]`,
	"Perform a comprehensive ATS":                   "```json\n{\"ats_score\": 80}\n```",
	"Optimize this CV":                              "# Jane Doe",
	"Generate a cover letter":                       "Dear hiring team",
	"Given the following CV skills":                 `{"enhanced_skills": ["python", "sql", "data analysis"]}`,
}

func newTestAdapter(replies map[string]string) *enrichment.Adapter {
	return enrichment.NewAdapter(scriptedModel(replies),
		enrichment.WithLogger(zerolog.Nop()),
		enrichment.WithRetryPolicy(0, 0))
}
