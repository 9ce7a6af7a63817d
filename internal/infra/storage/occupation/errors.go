package occupation

import "errors"

var (
	// ErrMasterNotFound возвращается, когда мастер для блокировки не найден
	ErrMasterNotFound = errors.New("occupation.repository: master not found")

	// ErrSlotConflict возвращается, когда интервал пересекается с уже занятым (exclusion constraint)
	ErrSlotConflict = errors.New("occupation.repository: interval overlaps existing occupation")

	// ErrInvalidInterval возвращается, когда начало интервала не раньше конца
	ErrInvalidInterval = errors.New("occupation.repository: invalid interval")

	// ErrTransactionRequired возвращается, когда блокировка запрошена вне транзакции
	ErrTransactionRequired = errors.New("occupation.repository: transaction required")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("occupation.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("occupation.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("occupation.repository: failed to scan row")
)
