package frontend

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// BreakStore 断点行集合，引擎独占
// 主键是本地序号（插入序遍历），gdb编号只是旁路索引：
// 编号会被gdb回收重发，本地序号不会
type BreakStore struct {
	rows    *linkedhashmap.Map // scid -> *Breakpoint
	byID    map[string]int     // id -> scid，只索引非空id
	scidGen int
}

func NewBreakStore() *BreakStore {
	return &BreakStore{
		rows: linkedhashmap.New(),
		byID: make(map[string]int),
	}
}

// NextScid 分配下一个本地序号
func (s *BreakStore) NextScid() int {
	s.scidGen++
	return s.scidGen
}

// Put 放入一行，ID非空时维护编号索引
// 编号在非空行之间必须唯一，重复编号说明上游出了协议错误，直接覆盖索引
func (s *BreakStore) Put(bp *Breakpoint) {
	s.rows.Put(bp.Scid, bp)
	if bp.ID != "" {
		s.byID[bp.ID] = bp.Scid
	}
}

// SetID 更新一行的gdb编号，同时维护索引
func (s *BreakStore) SetID(bp *Breakpoint, id string) {
	if bp.ID != "" {
		delete(s.byID, bp.ID)
	}
	bp.ID = id
	if id != "" {
		s.byID[id] = bp.Scid
	}
}

// Remove 删除一行
func (s *BreakStore) Remove(bp *Breakpoint) {
	s.rows.Remove(bp.Scid)
	if bp.ID != "" {
		delete(s.byID, bp.ID)
	}
}

// ByScid 按本地序号找行
func (s *BreakStore) ByScid(scid int) *Breakpoint {
	if v, ok := s.rows.Get(scid); ok {
		return v.(*Breakpoint)
	}
	return nil
}

// ByID 按gdb编号找行
func (s *BreakStore) ByID(id string) *Breakpoint {
	if id == "" {
		return nil
	}
	if scid, ok := s.byID[id]; ok {
		return s.ByScid(scid)
	}
	return nil
}

// Each 按插入序遍历，回调返回false时停止
// 回调里不能增删行，要改集合先用Rows拿快照
func (s *BreakStore) Each(fn func(*Breakpoint) bool) {
	it := s.rows.Iterator()
	for it.Next() {
		if !fn(it.Value().(*Breakpoint)) {
			return
		}
	}
}

// Rows 当前行的快照
func (s *BreakStore) Rows() []*Breakpoint {
	rows := make([]*Breakpoint, 0, s.rows.Size())
	s.Each(func(bp *Breakpoint) bool {
		rows = append(rows, bp)
		return true
	})
	return rows
}

// Len 行数
func (s *BreakStore) Len() int {
	return s.rows.Size()
}

// Clear 清空并重置序号
func (s *BreakStore) Clear() {
	s.rows.Clear()
	s.byID = make(map[string]int)
	s.scidGen = 0
}

// ThreadStore 线程行集合，按线程id索引，保持创建顺序
type ThreadStore struct {
	rows *linkedhashmap.Map // tid -> *Thread
}

func NewThreadStore() *ThreadStore {
	return &ThreadStore{rows: linkedhashmap.New()}
}

func (s *ThreadStore) Put(t *Thread) {
	s.rows.Put(t.ID, t)
}

func (s *ThreadStore) Remove(tid string) {
	s.rows.Remove(tid)
}

func (s *ThreadStore) Get(tid string) *Thread {
	if v, ok := s.rows.Get(tid); ok {
		return v.(*Thread)
	}
	return nil
}

func (s *ThreadStore) Each(fn func(*Thread) bool) {
	it := s.rows.Iterator()
	for it.Next() {
		if !fn(it.Value().(*Thread)) {
			return
		}
	}
}

func (s *ThreadStore) Rows() []*Thread {
	rows := make([]*Thread, 0, s.rows.Size())
	s.Each(func(t *Thread) bool {
		rows = append(rows, t)
		return true
	})
	return rows
}

func (s *ThreadStore) Len() int {
	return s.rows.Size()
}

func (s *ThreadStore) Clear() {
	s.rows.Clear()
}

// GroupStore 线程组集合
type GroupStore struct {
	groups *linkedhashmap.Map // gid -> *ThreadGroup
}

func NewGroupStore() *GroupStore {
	return &GroupStore{groups: linkedhashmap.New()}
}

func (s *GroupStore) Put(g *ThreadGroup) {
	s.groups.Put(g.GroupID, g)
}

func (s *GroupStore) Remove(gid string) {
	s.groups.Remove(gid)
}

func (s *GroupStore) Get(gid string) *ThreadGroup {
	if v, ok := s.groups.Get(gid); ok {
		return v.(*ThreadGroup)
	}
	return nil
}

func (s *GroupStore) Clear() {
	s.groups.Clear()
}
