package domain

import "errors"

// ErrStateCorruption signale un état persisté ou calculé qui viole un invariant
// (clés dupliquées dans la timeline, numérotations mélangées pour une série).
// Toute opération qui la rencontre doit s'arrêter avant de muter quoi que ce soit.
var ErrStateCorruption = errors.New("state corruption")

// ErrInvalidSelector is wrapped by selector errors returned when marking
// timeline entries as watched.
var ErrInvalidSelector = errors.New("invalid selector")
