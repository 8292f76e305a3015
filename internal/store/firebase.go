package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/db"
	"google.golang.org/api/option"
)

// reference is the subset of *db.Ref the store needs.
type reference interface {
	Get(ctx context.Context, v interface{}) error
	Set(ctx context.Context, v interface{}) error
	Push(ctx context.Context, v interface{}) (string, error)
	Update(ctx context.Context, v map[string]interface{}) error
	Delete(ctx context.Context) error
}

// FirebaseStore reaches a Firebase Realtime Database through the Admin SDK.
type FirebaseStore struct {
	ref func(path string) reference
}

type FirebaseConfig struct {
	DatabaseURL     string
	CredentialsFile string
}

func NewFirebaseStore(ctx context.Context, cfg FirebaseConfig) (*FirebaseStore, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("store: firebase database url is required")
	}
	opts := make([]option.ClientOption, 0, 1)
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: cfg.DatabaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("store: init firebase app: %w", err)
	}
	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: init firebase database: %w", err)
	}
	return &FirebaseStore{ref: func(path string) reference {
		return sdkRef{client.NewRef(path)}
	}}, nil
}

type sdkRef struct {
	*db.Ref
}

func (r sdkRef) Push(ctx context.Context, v interface{}) (string, error) {
	child, err := r.Ref.Push(ctx, v)
	if err != nil {
		return "", err
	}
	return child.Key, nil
}

func refPath(path string) (string, error) {
	segs, err := splitPath(path)
	if err != nil {
		return "", err
	}
	return "/" + strings.Join(segs, "/"), nil
}

func (s *FirebaseStore) Get(ctx context.Context, path string) (json.RawMessage, error) {
	p, err := refPath(path)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := s.ref(p).Get(ctx, &raw); err != nil {
		return nil, fmt.Errorf("store: firebase get %s: %w", p, err)
	}
	if IsNull(raw) {
		return json.RawMessage("null"), nil
	}
	return raw, nil
}

func (s *FirebaseStore) Put(ctx context.Context, path string, value any) (json.RawMessage, error) {
	p, err := refPath(path)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if err := s.ref(p).Set(ctx, json.RawMessage(payload)); err != nil {
		return nil, fmt.Errorf("store: firebase set %s: %w", p, err)
	}
	return payload, nil
}

func (s *FirebaseStore) Post(ctx context.Context, path string, value any) (string, error) {
	p, err := refPath(path)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	key, err := s.ref(p).Push(ctx, json.RawMessage(payload))
	if err != nil {
		return "", fmt.Errorf("store: firebase push %s: %w", p, err)
	}
	return key, nil
}

func (s *FirebaseStore) Patch(ctx context.Context, path string, partial any) (json.RawMessage, error) {
	p, err := refPath(path)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(partial)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: patch value must be an object", ErrInvalidValue)
	}
	if err := s.ref(p).Update(ctx, fields); err != nil {
		return nil, fmt.Errorf("store: firebase update %s: %w", p, err)
	}
	return payload, nil
}

func (s *FirebaseStore) Delete(ctx context.Context, path string) error {
	p, err := refPath(path)
	if err != nil {
		return err
	}
	if err := s.ref(p).Delete(ctx); err != nil {
		return fmt.Errorf("store: firebase delete %s: %w", p, err)
	}
	return nil
}
