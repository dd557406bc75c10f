package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"helpdesk/pkg/logger"
	"helpdesk/pkg/metrics"
	"helpdesk/pkg/models"
)

// ErrNotFound is returned when a referenced session, escalation or user
// does not exist.
var ErrNotFound = errors.New("not found")

var (
	db     *pebble.DB
	dbPath string
)

// seq reduces key collisions when multiple appends share the same
// nanosecond timestamp.
var seq uint64

// Key layout:
//
//	session:<token>:meta                session metadata JSON
//	session:<token>:msg:<ns>-<seq>      transcript message JSON, insertion order
//	session:<token>:escalation          escalation id for the token
//	escalation:<id>:meta                escalation record JSON
//	escalation:<id>:note:<ns>-<seq>     note JSON, insertion order
//	user:id:<id>                        user JSON
//	user:email:<email>                  user id index
//	faq:<id>                            FAQ entry JSON
//
// Transcript messages and notes are individually keyed appends, so
// concurrent writers (orchestrator turns, admin actions) can interleave
// without rewriting or dropping each other's entries.

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

func notOpened() error {
	return fmt.Errorf("pebble not opened; call store.Open first")
}

func appendSuffix() string {
	ts := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&seq, 1)
	return fmt.Sprintf("%020d-%06d", ts, s)
}

func get(key string, v interface{}) error {
	if db == nil {
		return notOpened()
	}
	raw, closer, err := db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	defer closer.Close()
	return json.Unmarshal(raw, v)
}

func set(key string, v interface{}) error {
	if db == nil {
		return notOpened()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := db.Set([]byte(key), data, pebble.Sync); err != nil {
		logger.Error("store_set_failed", "key", key, "error", err)
		return err
	}
	return nil
}

// scan collects all values under prefix in key order.
func scan(prefix string) ([][]byte, error) {
	if db == nil {
		return nil, notOpened()
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	pfx := []byte(prefix)
	var out [][]byte
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		out = append(out, append([]byte(nil), iter.Value()...))
	}
	return out, iter.Error()
}

// SaveSession stores session metadata under its token.
func SaveSession(s models.Session) error {
	return set("session:"+s.Token+":meta", s)
}

// GetSession returns the session for a token or ErrNotFound.
func GetSession(token string) (models.Session, error) {
	var s models.Session
	err := get("session:"+token+":meta", &s)
	return s, err
}

// ListSessions returns all sessions.
func ListSessions() ([]models.Session, error) {
	if db == nil {
		return nil, notOpened()
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	pfx := []byte("session:")
	var out []models.Session
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		if !strings.HasSuffix(string(iter.Key()), ":meta") {
			continue
		}
		var s models.Session
		if json.Unmarshal(iter.Value(), &s) == nil {
			out = append(out, s)
		}
	}
	return out, iter.Error()
}

// ListSessionsByUser returns the user's sessions, most recently updated
// first.
func ListSessionsByUser(userID string) ([]models.Session, error) {
	all, err := ListSessions()
	if err != nil {
		return nil, err
	}
	var out []models.Session
	for _, s := range all {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedTS > out[j].UpdatedTS })
	return out, nil
}

// AppendMessage appends a message to a session transcript by inserting a
// new key with a sortable timestamp suffix. Transcript order is insertion
// order; messages are never rewritten.
func AppendMessage(m models.Message) error {
	if m.Session == "" {
		return fmt.Errorf("message has no session token")
	}
	key := "session:" + m.Session + ":msg:" + appendSuffix()
	if err := set(key, m); err != nil {
		return err
	}
	metrics.MessagesAppended.WithLabelValues(m.Role).Inc()
	logger.Debug("message_appended", "session", m.Session, "role", m.Role, "source", m.Source)
	return nil
}

// ListMessages returns a session's transcript in insertion order. An
// optional limit keeps only the most recent n entries.
func ListMessages(token string, limit ...int) ([]models.Message, error) {
	vals, err := scan("session:" + token + ":msg:")
	if err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(vals))
	for _, v := range vals {
		var m models.Message
		if json.Unmarshal(v, &m) == nil {
			out = append(out, m)
		}
	}
	if len(limit) > 0 && limit[0] > 0 && len(out) > limit[0] {
		out = out[len(out)-limit[0]:]
	}
	return out, nil
}

// SaveEscalation stores an escalation record and its session pointer. At
// most one record exists per session token; callers re-open rather than
// duplicate.
func SaveEscalation(e models.Escalation) error {
	if err := set("escalation:"+e.ID+":meta", e); err != nil {
		return err
	}
	return set("session:"+e.SessionToken+":escalation", e.ID)
}

// GetEscalation returns the escalation with the given id or ErrNotFound.
func GetEscalation(id string) (models.Escalation, error) {
	var e models.Escalation
	err := get("escalation:"+id+":meta", &e)
	return e, err
}

// FindEscalationBySession returns the escalation record linked to a
// session token, or ErrNotFound when the session was never escalated.
func FindEscalationBySession(token string) (models.Escalation, error) {
	var id string
	if err := get("session:"+token+":escalation", &id); err != nil {
		return models.Escalation{}, err
	}
	return GetEscalation(id)
}

// ListEscalations returns all escalation records.
func ListEscalations() ([]models.Escalation, error) {
	if db == nil {
		return nil, notOpened()
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	pfx := []byte("escalation:")
	var out []models.Escalation
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		if !strings.HasSuffix(string(iter.Key()), ":meta") {
			continue
		}
		var e models.Escalation
		if json.Unmarshal(iter.Value(), &e) == nil {
			out = append(out, e)
		}
	}
	return out, iter.Error()
}

// AppendNote appends a note to an escalation. Notes are individually keyed
// and never dropped, even under concurrent writers.
func AppendNote(n models.Note) error {
	if n.Escalation == "" {
		return fmt.Errorf("note has no escalation id")
	}
	key := "escalation:" + n.Escalation + ":note:" + appendSuffix()
	return set(key, n)
}

// ListNotes returns an escalation's notes in insertion order.
func ListNotes(escalationID string) ([]models.Note, error) {
	vals, err := scan("escalation:" + escalationID + ":note:")
	if err != nil {
		return nil, err
	}
	out := make([]models.Note, 0, len(vals))
	for _, v := range vals {
		var n models.Note
		if json.Unmarshal(v, &n) == nil {
			out = append(out, n)
		}
	}
	return out, nil
}

// SaveUser stores a user and maintains the email index.
func SaveUser(u models.User) error {
	if err := set("user:id:"+u.ID, u); err != nil {
		return err
	}
	return set("user:email:"+strings.ToLower(u.Email), u.ID)
}

// GetUser returns the user with the given id or ErrNotFound.
func GetUser(id string) (models.User, error) {
	var u models.User
	err := get("user:id:"+id, &u)
	return u, err
}

// FindUserByEmail looks a user up through the email index.
func FindUserByEmail(email string) (models.User, error) {
	var id string
	if err := get("user:email:"+strings.ToLower(email), &id); err != nil {
		return models.User{}, err
	}
	return GetUser(id)
}

// ListUsers returns all users, newest first.
func ListUsers() ([]models.User, error) {
	vals, err := scan("user:id:")
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(vals))
	for _, v := range vals {
		var u models.User
		if json.Unmarshal(v, &u) == nil {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedTS > out[j].CreatedTS })
	return out, nil
}

// SaveFAQ stores a knowledge-base entry.
func SaveFAQ(f models.FAQ) error {
	return set("faq:"+f.ID, f)
}

// ListFAQs returns all knowledge-base entries sorted by category then
// question.
func ListFAQs() ([]models.FAQ, error) {
	vals, err := scan("faq:")
	if err != nil {
		return nil, err
	}
	out := make([]models.FAQ, 0, len(vals))
	for _, v := range vals {
		var f models.FAQ
		if json.Unmarshal(v, &f) == nil {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Question < out[j].Question
	})
	return out, nil
}
