package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/iffydopsqueen/backend-blog-project/internal/apperrors"
	"github.com/iffydopsqueen/backend-blog-project/internal/models"
)

var errStore = errors.New("store failure")

// memState is shared by the three mock stores so tests can assert
// cross-store effects. Failure flags let tests inject per-record store
// errors mid-cascade.
type memState struct {
	mu sync.Mutex

	comments      map[int64]*models.Comment
	nextCommentID int64

	blogs map[int64]*models.Blog

	notifications      map[int64]*models.Notification
	nextNotificationID int64

	failNotificationDelete bool
	failCounterDelta       bool
}

func newMemState() *memState {
	return &memState{
		comments:           make(map[int64]*models.Comment),
		nextCommentID:      1,
		blogs:              make(map[int64]*models.Blog),
		notifications:      make(map[int64]*models.Notification),
		nextNotificationID: 1,
	}
}

func (s *memState) addBlog(author models.Identity) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := int64(len(s.blogs) + 1)
	s.blogs[id] = &models.Blog{ID: id, Author: author}
	return id
}

func copyComment(c *models.Comment) *models.Comment {
	cp := *c
	cp.ChildIDs = append([]int64(nil), c.ChildIDs...)
	cp.Children = nil
	if c.ParentID != nil {
		p := *c.ParentID
		cp.ParentID = &p
	}
	return &cp
}

type commentMem struct{ st *memState }

func (m *commentMem) Insert(_ context.Context, c *models.Comment) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	id := m.st.nextCommentID
	m.st.nextCommentID++
	stored := copyComment(c)
	stored.ID = id
	stored.ChildIDs = []int64{}
	m.st.comments[id] = stored
	return id, nil
}

func (m *commentMem) FindByID(_ context.Context, id int64) (*models.Comment, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	c, ok := m.st.comments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copyComment(c), nil
}

func (m *commentMem) DeleteByID(_ context.Context, id int64) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	delete(m.st.comments, id)
	return nil
}

func (m *commentMem) AppendChild(_ context.Context, parentID, childID int64) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if p, ok := m.st.comments[parentID]; ok {
		p.ChildIDs = append(p.ChildIDs, childID)
	}
	return nil
}

func (m *commentMem) RemoveChild(_ context.Context, parentID, childID int64) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	p, ok := m.st.comments[parentID]
	if !ok {
		return nil
	}
	kept := p.ChildIDs[:0]
	for _, id := range p.ChildIDs {
		if id != childID {
			kept = append(kept, id)
		}
	}
	p.ChildIDs = kept
	return nil
}

func (m *commentMem) ListTopLevel(_ context.Context, blogID int64, skip, limit int) ([]*models.Comment, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []*models.Comment
	for _, c := range m.st.comments {
		if c.BlogID == blogID && c.ParentID == nil {
			out = append(out, copyComment(c))
		}
	}
	return paginateNewestFirst(out, skip, limit), nil
}

func (m *commentMem) ListReplies(_ context.Context, parentID int64, skip, limit int) ([]*models.Comment, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []*models.Comment
	for _, c := range m.st.comments {
		if c.ParentID != nil && *c.ParentID == parentID {
			out = append(out, copyComment(c))
		}
	}
	return paginateNewestFirst(out, skip, limit), nil
}

func (m *commentMem) FindSubtree(_ context.Context, rootID int64) ([]*models.Comment, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	root, ok := m.st.comments[rootID]
	if !ok {
		return nil, nil
	}
	in := map[int64]bool{rootID: true}
	out := []*models.Comment{copyComment(root)}
	// parent links only point upward, so one pass per depth level.
	for {
		grew := false
		for _, c := range m.st.comments {
			if in[c.ID] || c.ParentID == nil || !in[*c.ParentID] {
				continue
			}
			in[c.ID] = true
			out = append(out, copyComment(c))
			grew = true
		}
		if !grew {
			return out, nil
		}
	}
}

func (m *commentMem) SearchByText(_ context.Context, blogID int64, query string) ([]*models.Comment, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []*models.Comment
	for _, c := range m.st.comments {
		if c.BlogID == blogID && strings.Contains(strings.ToLower(c.Comment), strings.ToLower(query)) {
			out = append(out, copyComment(c))
		}
	}
	return paginateNewestFirst(out, 0, len(out)), nil
}

func (m *commentMem) CountByBlog(_ context.Context, blogID int64) (int64, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var total, parents int64
	for _, c := range m.st.comments {
		if c.BlogID != blogID {
			continue
		}
		total++
		if c.ParentID == nil {
			parents++
		}
	}
	return total, parents, nil
}

func paginateNewestFirst(comments []*models.Comment, skip, limit int) []*models.Comment {
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CommentedAt.Equal(comments[j].CommentedAt) {
			return comments[i].ID > comments[j].ID
		}
		return comments[i].CommentedAt.After(comments[j].CommentedAt)
	})
	if skip >= len(comments) {
		return []*models.Comment{}
	}
	comments = comments[skip:]
	if limit < len(comments) {
		comments = comments[:limit]
	}
	return comments
}

type blogMem struct{ st *memState }

func (m *blogMem) FindCounters(_ context.Context, blogID int64) (*models.Blog, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	b, ok := m.st.blogs[blogID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *b
	cp.CommentIDs = append([]int64(nil), b.CommentIDs...)
	return &cp, nil
}

func (m *blogMem) ApplyCounterDelta(_ context.Context, blogID int64, d models.CounterDelta) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if m.st.failCounterDelta {
		return errStore
	}
	if b, ok := m.st.blogs[blogID]; ok {
		b.TotalComments += d.TotalComments
		b.TotalParentComments += d.TotalParentComments
		b.TotalLikes += d.TotalLikes
	}
	return nil
}

func (m *blogMem) SetCommentCounters(_ context.Context, blogID, totalComments, totalParents int64) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if b, ok := m.st.blogs[blogID]; ok {
		b.TotalComments = totalComments
		b.TotalParentComments = totalParents
	}
	return nil
}

func (m *blogMem) AppendCommentRef(_ context.Context, blogID, commentID int64) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if b, ok := m.st.blogs[blogID]; ok {
		b.CommentIDs = append(b.CommentIDs, commentID)
	}
	return nil
}

func (m *blogMem) RemoveCommentRef(_ context.Context, blogID, commentID int64) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	b, ok := m.st.blogs[blogID]
	if !ok {
		return nil
	}
	kept := b.CommentIDs[:0]
	for _, id := range b.CommentIDs {
		if id != commentID {
			kept = append(kept, id)
		}
	}
	b.CommentIDs = kept
	return nil
}

func (m *blogMem) ListIDs(_ context.Context) ([]int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	ids := make([]int64, 0, len(m.st.blogs))
	for id := range m.st.blogs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type notificationMem struct{ st *memState }

func (m *notificationMem) Insert(_ context.Context, n *models.Notification) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	id := m.st.nextNotificationID
	m.st.nextNotificationID++
	cp := *n
	cp.ID = id
	m.st.notifications[id] = &cp
	n.ID = id
	return nil
}

func (m *notificationMem) DeleteByCommentID(_ context.Context, commentID int64) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if m.st.failNotificationDelete {
		return errStore
	}
	for id, n := range m.st.notifications {
		if n.CommentID != nil && *n.CommentID == commentID {
			delete(m.st.notifications, id)
		}
	}
	return nil
}

func (m *notificationMem) ClearReplyReference(_ context.Context, commentID int64) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, n := range m.st.notifications {
		if n.RepliedOnComment != nil && *n.RepliedOnComment == commentID {
			n.RepliedOnComment = nil
		}
	}
	return nil
}

func (m *notificationMem) DeleteByActorBlogKind(_ context.Context, actor models.Identity, blogID int64, kind models.NotificationKind) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for id, n := range m.st.notifications {
		if n.Actor == actor && n.BlogID == blogID && n.Kind == kind {
			delete(m.st.notifications, id)
		}
	}
	return nil
}

func (m *notificationMem) ExistsByActorBlogKind(_ context.Context, actor models.Identity, blogID int64, kind models.NotificationKind) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, n := range m.st.notifications {
		if n.Actor == actor && n.BlogID == blogID && n.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (m *notificationMem) ListForRecipient(_ context.Context, recipient models.Identity, skip, limit int) ([]*models.Notification, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var out []*models.Notification
	for _, n := range m.st.notifications {
		if n.NotificationFor == recipient {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if skip >= len(out) {
		return []*models.Notification{}, nil
	}
	out = out[skip:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// helpers used by assertions

func (s *memState) commentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comments)
}

func (s *memState) notificationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

func (s *memState) notificationsByKind(kind models.NotificationKind) []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Notification
	for _, n := range s.notifications {
		if n.Kind == kind {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memState) blog(id int64) models.Blog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.blogs[id]
}
