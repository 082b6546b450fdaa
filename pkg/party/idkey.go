package party

import "strconv"

func idKey(id ID) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseIDKey(s string) (ID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}
