package authz

import (
	"context"
	"sync"

	"schoolhub/internal/model"
)

// MemoryStore is an in-memory Store used by tests and local development.
// It honors the same contracts as the gorm store, including the
// (parent, student) uniqueness rule.
type MemoryStore struct {
	mu              sync.RWMutex
	nextID          uint
	assignments     []model.RoleAssignment
	schools         map[uint]model.School
	parentProfiles  map[uint]model.ParentProfile // keyed by user id
	teacherProfiles []model.TeacherProfile
	students        []model.Student
	links           []model.ParentStudentLink
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		schools:        make(map[uint]model.School),
		parentProfiles: make(map[uint]model.ParentProfile),
	}
}

func (m *MemoryStore) id() uint {
	m.nextID++
	return m.nextID
}

// AddSchool registers a school and returns it with an assigned id.
func (m *MemoryStore) AddSchool(code, name string, active bool) model.School {
	m.mu.Lock()
	defer m.mu.Unlock()
	school := model.School{ID: m.id(), Code: code, Name: name, Active: active}
	m.schools[school.ID] = school
	return school
}

// AddRole registers a role assignment.
func (m *MemoryStore) AddRole(userID uint, role string, schoolID *uint, active bool) model.RoleAssignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := model.RoleAssignment{ID: m.id(), UserID: userID, Role: role, SchoolID: schoolID, Active: active}
	m.assignments = append(m.assignments, a)
	return a
}

// AddTeacherProfile registers a teacher profile.
func (m *MemoryStore) AddTeacherProfile(userID, schoolID uint, name string) model.TeacherProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := model.TeacherProfile{ID: m.id(), UserID: userID, SchoolID: schoolID, Name: name, Active: true}
	m.teacherProfiles = append(m.teacherProfiles, p)
	return p
}

// AddStudent registers a student record.
func (m *MemoryStore) AddStudent(schoolID uint, admissionNo, name, email string) model.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Student{ID: m.id(), SchoolID: schoolID, AdmissionNo: admissionNo, Name: name, Email: email, Active: true}
	m.students = append(m.students, s)
	return s
}

// AddLink registers a parent-student link in the given status.
func (m *MemoryStore) AddLink(parentProfileID, studentID uint, status string) model.ParentStudentLink {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := model.ParentStudentLink{ID: m.id(), ParentProfileID: parentProfileID, StudentID: studentID, Status: status}
	m.links = append(m.links, l)
	return l
}

func (m *MemoryStore) ActiveRoles(ctx context.Context, userID uint) ([]model.RoleAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.RoleAssignment
	for _, a := range m.assignments {
		if a.UserID == userID && a.Active {
			out = append(out, a)
		}
	}
	SortByPriority(out)
	return out, nil
}

func (m *MemoryStore) SchoolByID(ctx context.Context, id uint) (*model.School, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	school, ok := m.schools[id]
	if !ok || !school.Active {
		return nil, ErrNotFound
	}
	return &school, nil
}

func (m *MemoryStore) ParentProfileByUser(ctx context.Context, userID uint) (*model.ParentProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.parentProfiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &profile, nil
}

func (m *MemoryStore) CreateParentProfile(ctx context.Context, p *model.ParentProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.parentProfiles[p.UserID]; exists {
		return ErrAlreadyLinked
	}
	p.ID = m.id()
	m.parentProfiles[p.UserID] = *p
	return nil
}

func (m *MemoryStore) TeacherProfileByUser(ctx context.Context, userID, schoolID uint) (*model.TeacherProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.teacherProfiles {
		if p.UserID == userID && p.SchoolID == schoolID && p.Active {
			profile := p
			return &profile, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) StudentByEmail(ctx context.Context, email string) (*model.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.students {
		if s.Email == email && s.Active {
			student := s
			return &student, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) LinkedStudents(ctx context.Context, parentProfileID uint) ([]model.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Student
	for _, l := range m.links {
		if l.ParentProfileID != parentProfileID || l.Status != model.LinkStatusVerified {
			continue
		}
		for _, s := range m.students {
			if s.ID == l.StudentID {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (m *MemoryStore) VerifiedStudentIDs(ctx context.Context, parentProfileID uint) ([]uint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []uint
	for _, l := range m.links {
		if l.ParentProfileID == parentProfileID && l.Status == model.LinkStatusVerified {
			ids = append(ids, l.StudentID)
		}
	}
	return ids, nil
}
