package note

import (
	"anoa.com/classhub/internal/entity"
	"anoa.com/classhub/internal/modules/note/dto"
)

// commentArena holds a note's comments in a flat slice. Comments point at their parent by id
// and children are resolved to slice indexes, never pointers.
type commentArena struct {
	comments []entity.Comment
	children [][]int
	roots    []int
}

func newCommentArena(comments []entity.Comment) *commentArena {
	a := &commentArena{
		comments: comments,
		children: make([][]int, len(comments)),
	}

	index := make(map[uint]int, len(comments))
	for i, c := range comments {
		index[c.ID] = i
	}

	for i, c := range comments {
		if c.ParentID != nil {
			// a parent always precedes its replies; anything else is treated as top level
			if p, ok := index[*c.ParentID]; ok && p < i {
				a.children[p] = append(a.children[p], i)
				continue
			}
		}
		a.roots = append(a.roots, i)
	}
	return a
}

func (a *commentArena) node(i int) dto.CommentNode {
	n := dto.CommentNode{
		CommentResponse: dto.ToCommentResponse(&a.comments[i]),
		Replies:         make([]dto.CommentNode, 0, len(a.children[i])),
	}
	for _, child := range a.children[i] {
		n.Replies = append(n.Replies, a.node(child))
	}
	return n
}

// BuildCommentTree nests comments under their parents. comments must be ordered by id.
func BuildCommentTree(comments []entity.Comment) []dto.CommentNode {
	a := newCommentArena(comments)
	tree := make([]dto.CommentNode, 0, len(a.roots))
	for _, r := range a.roots {
		tree = append(tree, a.node(r))
	}
	return tree
}
