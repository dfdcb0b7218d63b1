package cache

// lruList maintains eviction order: most recent at the head, eviction
// candidates at the tail. Not goroutine safe; the cache's lock covers
// it.
type lruList struct {
	head  *lruNode
	tail  *lruNode
	nodes map[string]*lruNode
}

type lruNode struct {
	key        string
	prev, next *lruNode
}

func newLRUList() *lruList {
	head := &lruNode{}
	tail := &lruNode{}
	head.next = tail
	tail.prev = head
	return &lruList{
		head:  head,
		tail:  tail,
		nodes: make(map[string]*lruNode),
	}
}

func (l *lruList) addToFront(key string) {
	if node, exists := l.nodes[key]; exists {
		l.unlink(node)
		l.linkFront(node)
		return
	}
	node := &lruNode{key: key}
	l.nodes[key] = node
	l.linkFront(node)
}

func (l *lruList) moveToFront(key string) {
	if node, exists := l.nodes[key]; exists {
		l.unlink(node)
		l.linkFront(node)
	}
}

func (l *lruList) remove(key string) {
	if node, exists := l.nodes[key]; exists {
		l.unlink(node)
		delete(l.nodes, key)
	}
}

// removeOldest unlinks and returns the least recently used key, or ""
// when the list is empty.
func (l *lruList) removeOldest() string {
	if len(l.nodes) == 0 {
		return ""
	}
	oldest := l.tail.prev
	l.unlink(oldest)
	delete(l.nodes, oldest.key)
	return oldest.key
}

func (l *lruList) linkFront(node *lruNode) {
	node.next = l.head.next
	node.prev = l.head
	l.head.next.prev = node
	l.head.next = node
}

func (l *lruList) unlink(node *lruNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}
