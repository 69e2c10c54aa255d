package usecase

import "todo_client/internal/domain"

// todoSet is an insertion-ordered mapping from id to item.
type todoSet struct {
	order []int64
	byID  map[int64]domain.Todo
}

func newTodoSet() *todoSet {
	return &todoSet{byID: make(map[int64]domain.Todo)}
}

func (s *todoSet) len() int { return len(s.order) }

// append adds t at the end; a duplicate id replaces the earlier entry in place.
func (s *todoSet) append(t domain.Todo) {
	if _, ok := s.byID[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.byID[t.ID] = t
}

func (s *todoSet) prepend(t domain.Todo) {
	if _, ok := s.byID[t.ID]; ok {
		s.byID[t.ID] = t
		return
	}
	s.order = append([]int64{t.ID}, s.order...)
	s.byID[t.ID] = t
}

func (s *todoSet) replace(id int64, t domain.Todo) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	if t.ID == 0 {
		t.ID = id
	}
	s.byID[id] = t
	return true
}

func (s *todoSet) remove(id int64) {
	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *todoSet) list() []domain.Todo {
	out := make([]domain.Todo, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
