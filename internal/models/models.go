package models

import (
	datasets "github.com/neutralface-io/nfai-web/internal/models/datasets"
	user "github.com/neutralface-io/nfai-web/internal/models/user"
)

func RegisterModels() []interface{} {
	return []interface{}{
		&user.UserProfile{},
		&datasets.Dataset{},
		&datasets.Like{},
		&datasets.Collection{},
		&datasets.CollectionDataset{},
	}
}

type (
	UserProfile   = user.UserProfile
	ProfileInput  = user.ProfileInput
	PublicProfile = user.PublicProfile

	Dataset           = datasets.Dataset
	Author            = datasets.Author
	DatasetInput      = datasets.DatasetInput
	DatasetPatch      = datasets.DatasetPatch
	Like              = datasets.Like
	LikeState         = datasets.LikeState
	Topic             = datasets.Topic
	TopicsInput       = datasets.TopicsInput
	Collection        = datasets.Collection
	CollectionDataset = datasets.CollectionDataset
	CollectionInput   = datasets.CollectionInput
	CollectionPatch   = datasets.CollectionPatch
	ShareInput        = datasets.ShareInput
	StringList        = datasets.StringList
)

const (
	VisibilityPublic  = datasets.VisibilityPublic
	VisibilityPrivate = datasets.VisibilityPrivate
	DefaultLicense    = datasets.DefaultLicense
)

var (
	Licenses       = datasets.Licenses
	IsKnownLicense = datasets.IsKnownLicense

	NewDataset                = datasets.NewDataset
	WithVisibility            = datasets.WithVisibility
	WithLicense               = datasets.WithLicense
	WithTopics                = datasets.WithTopics
	WithFile                  = datasets.WithFile
	NewCollection             = datasets.NewCollection
	WithCollectionDescription = datasets.WithCollectionDescription
	WithPublic                = datasets.WithPublic

	NewUserProfile = user.NewUserProfile
	WithUsername   = user.WithUsername
	WithEmail      = user.WithEmail
)
