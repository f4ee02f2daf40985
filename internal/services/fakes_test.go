package services

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"signage-service/internal/adapters/kafka"
	"signage-service/internal/models"
	"signage-service/internal/repositories/postgres"
	"signage-service/internal/websocket"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uint]*models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*models.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return postgres.ErrEmailAlreadyUsed
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, postgres.ErrNotFound
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, postgres.ErrNotFound
}

type fakeScreenRepo struct {
	mu      sync.Mutex
	screens map[uint]*models.Screen
	nextID  uint
	// afterFind runs once FindByID has copied a row, outside the lock.
	afterFind func()
}

func testScreen(id uint, name, deviceKey string) models.Screen {
	s := models.Screen{Name: name, DeviceKey: deviceKey}
	s.ID = id
	return s
}

func testMedia(id uint, name string, tags ...string) models.Media {
	m := models.Media{Name: name, ObjectKey: "media/" + name, URL: "http://minio.local/" + name, ContentType: "image/png", Tags: tags}
	m.ID = id
	return m
}

func newFakeScreenRepo(screens ...models.Screen) *fakeScreenRepo {
	f := &fakeScreenRepo{screens: make(map[uint]*models.Screen)}
	for i := range screens {
		s := screens[i]
		if s.ID > f.nextID {
			f.nextID = s.ID
		}
		f.screens[s.ID] = &s
	}
	return f
}

func (f *fakeScreenRepo) Create(ctx context.Context, screen *models.Screen) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	screen.ID = f.nextID
	cp := *screen
	f.screens[screen.ID] = &cp
	return nil
}

func (f *fakeScreenRepo) UpdateDetails(ctx context.Context, id uint, name, location string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.screens[id]
	if !ok {
		return postgres.ErrNotFound
	}
	s.Name = name
	s.Location = location
	return nil
}

func (f *fakeScreenRepo) UpdateDeviceKey(ctx context.Context, id uint, deviceKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.screens[id]
	if !ok {
		return postgres.ErrNotFound
	}
	s.DeviceKey = deviceKey
	s.IsOnline = false
	return nil
}

func (f *fakeScreenRepo) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.screens[id]; !ok {
		return postgres.ErrNotFound
	}
	delete(f.screens, id)
	return nil
}

func (f *fakeScreenRepo) sorted(filter func(*models.Screen) bool) []models.Screen {
	out := []models.Screen{}
	for _, s := range f.screens {
		if filter(s) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeScreenRepo) FindAll(ctx context.Context) ([]models.Screen, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(*models.Screen) bool { return true }), nil
}

func (f *fakeScreenRepo) FindOnline(ctx context.Context) ([]models.Screen, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(s *models.Screen) bool { return s.IsOnline }), nil
}

func (f *fakeScreenRepo) FindByID(ctx context.Context, id uint) (*models.Screen, error) {
	f.mu.Lock()
	s, ok := f.screens[id]
	var cp models.Screen
	if ok {
		cp = *s
	}
	hook := f.afterFind
	f.mu.Unlock()
	if !ok {
		return nil, postgres.ErrNotFound
	}
	if hook != nil {
		hook()
	}
	return &cp, nil
}

func (f *fakeScreenRepo) FindByIDs(ctx context.Context, ids []uint) ([]models.Screen, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[uint]bool)
	for _, id := range ids {
		want[id] = true
	}
	return f.sorted(func(s *models.Screen) bool { return want[s.ID] }), nil
}

func (f *fakeScreenRepo) byKey(deviceKey string) *models.Screen {
	for _, s := range f.screens {
		if s.DeviceKey == deviceKey {
			return s
		}
	}
	return nil
}

func (f *fakeScreenRepo) FindByDeviceKey(ctx context.Context, deviceKey string) (*models.Screen, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s := f.byKey(deviceKey); s != nil {
		cp := *s
		return &cp, nil
	}
	return nil, postgres.ErrNotFound
}

func (f *fakeScreenRepo) UpdateOnlineStatus(ctx context.Context, deviceKey string, online bool, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.byKey(deviceKey)
	if s == nil {
		return postgres.ErrNotFound
	}
	s.IsOnline = online
	s.LastSeenAt = &at
	return nil
}

func (f *fakeScreenRepo) UpdateLastStatus(ctx context.Context, deviceKey string, status string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.byKey(deviceKey)
	if s == nil {
		return postgres.ErrNotFound
	}
	s.LastStatus = status
	s.LastSeenAt = &at
	return nil
}

type fakePresenceCache struct {
	mu     sync.Mutex
	online map[string]bool
	status map[string]string
}

func newFakePresenceCache() *fakePresenceCache {
	return &fakePresenceCache{online: map[string]bool{}, status: map[string]string{}}
}

func (f *fakePresenceCache) SetScreenOnline(ctx context.Context, deviceKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[deviceKey] = true
	return nil
}

func (f *fakePresenceCache) SetScreenOffline(ctx context.Context, deviceKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[deviceKey] = false
	return nil
}

func (f *fakePresenceCache) SetScreenStatus(ctx context.Context, deviceKey string, status []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[deviceKey] = string(status)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, ev kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeMediaRepo struct {
	mu      sync.Mutex
	media   map[uint]*models.Media
	nextID  uint
	failErr error
}

func newFakeMediaRepo(media ...models.Media) *fakeMediaRepo {
	f := &fakeMediaRepo{media: make(map[uint]*models.Media)}
	for i := range media {
		m := media[i]
		if m.ID > f.nextID {
			f.nextID = m.ID
		}
		f.media[m.ID] = &m
	}
	return f
}

func (f *fakeMediaRepo) Create(ctx context.Context, media *models.Media) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.nextID++
	media.ID = f.nextID
	cp := *media
	f.media[media.ID] = &cp
	return nil
}

func (f *fakeMediaRepo) FindAll(ctx context.Context) ([]models.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Media{}
	for _, m := range f.media {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMediaRepo) FindByID(ctx context.Context, id uint) (*models.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.media[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, postgres.ErrNotFound
}

func (f *fakeMediaRepo) FindByIDs(ctx context.Context, ids []uint) ([]models.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Media{}
	for _, id := range ids {
		if m, ok := f.media[id]; ok {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMediaRepo) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.media[id]; !ok {
		return postgres.ErrNotFound
	}
	delete(f.media, id)
	return nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Upload(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[objectKey] = buf.Bytes()
	return "http://minio.local/signage-media/" + objectKey, nil
}

func (f *fakeStorage) Remove(ctx context.Context, objectKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, objectKey)
	f.removed = append(f.removed, objectKey)
	return nil
}

type staticTagger []string

func (s staticTagger) TagMedia(ctx context.Context, name, contentType string) ([]string, error) {
	return s, nil
}

type fakePlaylistRepo struct {
	mu        sync.Mutex
	playlists map[uint]*models.Playlist
	media     *fakeMediaRepo
	nextID    uint
}

func newFakePlaylistRepo(media *fakeMediaRepo) *fakePlaylistRepo {
	return &fakePlaylistRepo{playlists: make(map[uint]*models.Playlist), media: media}
}

func (f *fakePlaylistRepo) Create(ctx context.Context, p *models.Playlist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.playlists[p.ID] = &cp
	return nil
}

func (f *fakePlaylistRepo) Update(ctx context.Context, p *models.Playlist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.playlists[p.ID]
	if !ok {
		return postgres.ErrNotFound
	}
	existing.Name = p.Name
	existing.Description = p.Description
	return nil
}

func (f *fakePlaylistRepo) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.playlists[id]; !ok {
		return postgres.ErrNotFound
	}
	delete(f.playlists, id)
	return nil
}

func (f *fakePlaylistRepo) FindAll(ctx context.Context) ([]models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Playlist{}
	for _, p := range f.playlists {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakePlaylistRepo) FindWithItems(ctx context.Context, id uint) (*models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[id]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	cp := *p
	cp.Items = make([]models.PlaylistItem, len(p.Items))
	for i, it := range p.Items {
		if m, err := f.media.FindByID(ctx, it.MediaID); err == nil {
			it.Media = *m
		}
		cp.Items[i] = it
	}
	return &cp, nil
}

func (f *fakePlaylistRepo) ReplaceItems(ctx context.Context, playlistID uint, items []models.PlaylistItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.playlists[playlistID]
	if !ok {
		return postgres.ErrNotFound
	}
	p.Items = make([]models.PlaylistItem, len(items))
	for i, it := range items {
		it.ID = uint(i + 1)
		it.PlaylistID = playlistID
		it.Position = i
		p.Items[i] = it
	}
	return nil
}

type fakeBroadcastRepo struct {
	mu         sync.Mutex
	broadcasts []models.Broadcast
}

func (f *fakeBroadcastRepo) Create(ctx context.Context, b *models.Broadcast) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = uint(len(f.broadcasts) + 1)
	b.CreatedAt = time.Now()
	f.broadcasts = append(f.broadcasts, *b)
	return nil
}

func (f *fakeBroadcastRepo) FindByID(ctx context.Context, id uint) (*models.Broadcast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.broadcasts {
		if f.broadcasts[i].ID == id {
			cp := f.broadcasts[i]
			return &cp, nil
		}
	}
	return nil, postgres.ErrNotFound
}

func (f *fakeBroadcastRepo) FindRecent(ctx context.Context, limit int) ([]models.Broadcast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Broadcast, 0, len(f.broadcasts))
	for i := len(f.broadcasts) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, f.broadcasts[i])
	}
	return out, nil
}

type recordingDispatcher struct {
	keys   []string
	msg    websocket.Message
	result websocket.DispatchResult
}

func (d *recordingDispatcher) Dispatch(deviceKeys []string, msg websocket.Message) (websocket.DispatchResult, error) {
	d.keys = append([]string(nil), deviceKeys...)
	d.msg = msg
	return d.result, nil
}
