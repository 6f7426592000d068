package dto

// ValidateDTO carries raw init data exactly as the Mini App sent it.
type ValidateDTO struct {
	InitData string `json:"init_data" form:"init_data"`
}

type ValidateResponse struct {
	OK    bool    `json:"ok"`
	Error *string `json:"error"`
}

func OK() ValidateResponse {
	return ValidateResponse{OK: true}
}

func Fail(msg string) ValidateResponse {
	return ValidateResponse{OK: false, Error: &msg}
}
