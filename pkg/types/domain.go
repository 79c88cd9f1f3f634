package types

// FeatureNames is the fixed feature order expected by the classifier.
var FeatureNames = [4]string{"sepal_length", "sepal_width", "petal_length", "petal_width"}

// ClassNames maps class indices to species names. Index i is class label i.
// Defined once, never mutated at runtime.
var ClassNames = [3]string{"setosa", "versicolor", "virginica"}

// NumFeatures is the arity of a feature vector.
const NumFeatures = 4

// NumClasses is the number of target classes.
const NumClasses = 3
