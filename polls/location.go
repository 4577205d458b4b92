package polls

// Location is where a poll's event takes place. Only the name is guaranteed.
type Location struct {
	Name    string
	Address string
	Country string
}

func (l Location) String() string {
	return l.Name
}
