package core

// JoinType is the kind of a join, shared by the object tree and the SQL tree.
type JoinType string

// Join kinds. Only Inner, Left and Cross have a SQL rendering.
const (
	JoinInner JoinType = "INNER"
	JoinLeft  JoinType = "LEFT"
	JoinRight JoinType = "RIGHT"
	JoinFull  JoinType = "FULL"
	JoinCross JoinType = "CROSS"
)

func (j JoinType) String() string { return string(j) }

// SQL returns the join keyword sequence for j.
func (j JoinType) SQL() string {
	switch j {
	case JoinLeft:
		return "left join"
	case JoinRight:
		return "right join"
	case JoinFull:
		return "full join"
	case JoinCross:
		return "cross join"
	default:
		return "join"
	}
}

// Supported reports whether j can be rendered to SQL.
func (j JoinType) Supported() bool {
	return j == JoinInner || j == JoinLeft || j == JoinCross
}
