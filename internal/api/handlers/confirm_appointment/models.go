package confirm_appointment

// ConfirmRequest HTTP модель запроса на подтверждение
type ConfirmRequest struct {
	ConfirmationCode string `json:"confirmation_code"`
}

// IncorrectCodeResponse ответ на неверный код
type IncorrectCodeResponse struct {
	Error        string `json:"error"`
	AttemptsLeft int    `json:"attempts_left"`
	Deleted      bool   `json:"deleted"`
}
