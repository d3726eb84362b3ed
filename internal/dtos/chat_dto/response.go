package chat_dto

type ChatResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	IsGroup bool   `json:"is_group"`
}

type MemberResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
}
