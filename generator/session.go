package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ailo_generator/store"
)

// Session keys.
const (
	keySyllabusText   = "syllabus_text"
	keyFilename       = "filename"
	keyInventory      = "validated_inventory"
	keyLastGeneration = "last_generation"
)

// Session 是单个用户在 store 中状态的类型化视图，写入以最后一次为准。
type Session struct {
	ID    string
	store store.Store
}

// NewSession 创建 session，调用 Save 之前不写入任何数据。
func NewSession(id string, st store.Store) *Session {
	return &Session{ID: id, store: st}
}

// SaveSyllabus keeps the normalized text and original filename of an upload.
func (s *Session) SaveSyllabus(ctx context.Context, filename, text string) error {
	if err := s.put(ctx, keyFilename, filename); err != nil {
		return err
	}
	return s.put(ctx, keySyllabusText, text)
}

// Syllabus returns the last uploaded filename and text, if any.
func (s *Session) Syllabus(ctx context.Context) (filename, text string, ok bool, err error) {
	if ok, err = s.get(ctx, keyFilename, &filename); err != nil || !ok {
		return "", "", ok, err
	}
	if _, err = s.get(ctx, keySyllabusText, &text); err != nil {
		return "", "", false, err
	}
	return filename, text, true, nil
}

// Filename returns the original filename of the last upload, or "".
func (s *Session) Filename(ctx context.Context) (string, error) {
	var name string
	_, err := s.get(ctx, keyFilename, &name)
	return name, err
}

// SaveInventory replaces the session's validated inventory.
func (s *Session) SaveInventory(ctx context.Context, inv ValidatedInventory) error {
	return s.put(ctx, keyInventory, inv)
}

// Inventory returns the validated inventory, if one was saved.
func (s *Session) Inventory(ctx context.Context) (ValidatedInventory, bool, error) {
	var inv ValidatedInventory
	ok, err := s.get(ctx, keyInventory, &inv)
	return inv, ok, err
}

// RecordGeneration 保存最近一次生成结果，维度名按框架写法规范化。
func (s *Session) RecordGeneration(ctx context.Context, dimensions []string, influencePercent int, result GenerationResult) error {
	return s.put(ctx, keyLastGeneration, GenerationRecord{
		SelectedDimensions: CanonicalDimensions(dimensions),
		InfluencePercent:   influencePercent,
		Result:             result,
		CreatedAt:          time.Now().UTC(),
	})
}

// LastGeneration returns the most recent generation record, if any.
func (s *Session) LastGeneration(ctx context.Context) (GenerationRecord, bool, error) {
	var rec GenerationRecord
	ok, err := s.get(ctx, keyLastGeneration, &rec)
	return rec, ok, err
}

// Reset drops everything stored for the session.
func (s *Session) Reset(ctx context.Context) error {
	return s.store.Delete(ctx, s.ID)
}

func (s *Session) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session %s: encode %s: %w", s.ID, key, err)
	}
	if err := s.store.Put(ctx, s.ID, key, data); err != nil {
		return fmt.Errorf("session %s: save %s: %w", s.ID, key, err)
	}
	return nil
}

func (s *Session) get(ctx context.Context, key string, v any) (bool, error) {
	data, ok, err := s.store.Get(ctx, s.ID, key)
	if err != nil {
		return false, fmt.Errorf("session %s: load %s: %w", s.ID, key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("session %s: decode %s: %w", s.ID, key, err)
	}
	return true, nil
}
