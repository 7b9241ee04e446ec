package types

type ID string
