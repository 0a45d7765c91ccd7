package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Repository --dir ../domain/prediction --output domain/prediction --outpkg predictionmock --filename repository_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name StatusSource --dir ../domain/chip --output domain/chip --outpkg chipmock --filename status_source_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name DismissalStore --dir ../domain/chip --output domain/chip --outpkg chipmock --filename dismissal_store_mock.go
