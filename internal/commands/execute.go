package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add     func(AddArgs) (Result, error)
	Move    func(MoveArgs) (Result, error)
	Delete  func(DeleteArgs) (Result, error)
	Search  func(SearchArgs) (Result, error)
	Check   func(CheckArgs) (Result, error)
	Contact func(ContactArgs) (Result, error)
	Show    func(ShowArgs) (Result, error)
}

func missing(name string) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: name + " handler not configured"}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing("add")
		}
		return handlers.Add(*cmd.Add)
	case TypeMove:
		if handlers.Move == nil {
			return Result{}, missing("move")
		}
		return handlers.Move(*cmd.Move)
	case TypeDelete:
		if handlers.Delete == nil {
			return Result{}, missing("delete")
		}
		return handlers.Delete(*cmd.Delete)
	case TypeSearch:
		if handlers.Search == nil {
			return Result{}, missing("search")
		}
		return handlers.Search(*cmd.Search)
	case TypeCheck:
		if handlers.Check == nil {
			return Result{}, missing("check")
		}
		return handlers.Check(*cmd.Check)
	case TypeContact:
		if handlers.Contact == nil {
			return Result{}, missing("contact")
		}
		return handlers.Contact(*cmd.Contact)
	case TypeShow:
		if handlers.Show == nil {
			return Result{}, missing("show")
		}
		return handlers.Show(*cmd.Show)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
